package vfs

import "time"

// EntryType distinguishes files from folders.
type EntryType string

const (
	TypeFile   EntryType = "file"
	TypeFolder EntryType = "folder"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == TypeFile || t == TypeFolder
}

// Default permission strings for new entries.
const (
	FolderPermissions = "rwxr-xr-x"
	FilePermissions   = "rw-r--r--"
)

// Entry is one record of an owner's filesystem. Children of a folder are
// independent entries whose Path equals the folder's full path.
type Entry struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Owner       string    `gorm:"not null;size:128;uniqueIndex:idx_entry_owner_path_name,priority:1;index:idx_entry_owner_path,priority:1" json:"owner"`
	Path        string    `gorm:"not null;uniqueIndex:idx_entry_owner_path_name,priority:2;index:idx_entry_owner_path,priority:2" json:"path"`
	Name        string    `gorm:"not null;uniqueIndex:idx_entry_owner_path_name,priority:3" json:"name"`
	Type        EntryType `gorm:"not null;size:8" json:"type"`
	Size        int64     `gorm:"not null;default:0" json:"size"`
	Permissions string    `gorm:"not null;size:16" json:"permissions"`
	Content     string    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// TableName sets the GORM table name.
func (Entry) TableName() string {
	return "fs_entries"
}

// FullPath returns the absolute path of the entry itself.
func (e Entry) FullPath() string {
	return Join(e.Path, e.Name)
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool {
	return e.Type == TypeFolder
}

func defaultPermissions(t EntryType) string {
	if t == TypeFolder {
		return FolderPermissions
	}
	return FilePermissions
}
