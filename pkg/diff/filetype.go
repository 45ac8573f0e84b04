package diff

import "fmt"

// FileType is the closed set of tree entry types, keyed by git's canonical
// octal mode strings.
type FileType int

const (
	FileTypeNone FileType = iota // absent side of an added or deleted patch
	FileTypeDirectory
	FileTypeRegular
	FileTypeRegularGroupWritable
	FileTypeExecutable
	FileTypeSymlink
	FileTypeVCSLink // submodule / subrepo pointer
)

// ParseFileType decodes a canonical octal mode string. Unknown modes are a
// hard parse error; a tool emitting one means a format we do not understand.
func ParseFileType(mode string) (FileType, error) {
	switch mode {
	case "040000":
		return FileTypeDirectory, nil
	case "100644":
		return FileTypeRegular, nil
	case "100664":
		return FileTypeRegularGroupWritable, nil
	case "100755":
		return FileTypeExecutable, nil
	case "120000":
		return FileTypeSymlink, nil
	case "160000":
		return FileTypeVCSLink, nil
	case "000000":
		return FileTypeNone, nil
	}
	return 0, fmt.Errorf("parse file type: unknown mode %q", mode)
}

// Mode returns the canonical octal mode string for the type.
func (t FileType) Mode() string {
	switch t {
	case FileTypeDirectory:
		return "040000"
	case FileTypeRegular:
		return "100644"
	case FileTypeRegularGroupWritable:
		return "100664"
	case FileTypeExecutable:
		return "100755"
	case FileTypeSymlink:
		return "120000"
	case FileTypeVCSLink:
		return "160000"
	}
	return "000000"
}

// IsRegular reports whether the type is a non-executable regular file.
func (t FileType) IsRegular() bool {
	return t == FileTypeRegular || t == FileTypeRegularGroupWritable
}

func (t FileType) String() string {
	switch t {
	case FileTypeDirectory:
		return "directory"
	case FileTypeRegular:
		return "regular"
	case FileTypeRegularGroupWritable:
		return "regular (group writable)"
	case FileTypeExecutable:
		return "executable"
	case FileTypeSymlink:
		return "symlink"
	case FileTypeVCSLink:
		return "vcs link"
	}
	return "none"
}
