package array

// Wire types for the array management API. Field names follow the array's
// JSON representation; pointers mark fields that are omitted when unset so
// PATCH bodies only carry what they change.

// NFSRule carries the NFS protocol state of a filesystem.
type NFSRule struct {
	V3Enabled  *bool  `json:"v3_enabled,omitempty"`
	V41Enabled *bool  `json:"v4_1_enabled,omitempty"`
	Rules      string `json:"rules,omitempty"`
}

// SMBRule carries the SMB protocol state of a filesystem.
type SMBRule struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// FileSystemSpace is the array's space accounting for one filesystem.
type FileSystemSpace struct {
	// Virtual is the logical bytes written by clients, before reduction.
	Virtual int64 `json:"virtual"`

	// TotalPhysical is the physical footprint after reduction.
	TotalPhysical int64 `json:"total_physical"`

	// Unique is the physical space not shared with snapshots.
	Unique int64 `json:"unique"`

	// Snapshots is the physical space held by snapshots.
	Snapshots int64 `json:"snapshots"`
}

// FileSystem is the array's filesystem resource.
type FileSystem struct {
	Name        string `json:"name"`
	Provisioned int64  `json:"provisioned"`

	HardLimitEnabled           bool `json:"hard_limit_enabled"`
	FastRemoveDirectoryEnabled bool `json:"fast_remove_directory_enabled"`
	SnapshotDirectoryEnabled   bool `json:"snapshot_directory_enabled"`

	NFS *NFSRule `json:"nfs,omitempty"`
	SMB *SMBRule `json:"smb,omitempty"`

	// Destroyed marks a filesystem in the pending-eradication state.
	Destroyed bool `json:"destroyed"`

	Space *FileSystemSpace `json:"space,omitempty"`
}

// FileSystemPatch is the mutable subset of a filesystem, sent on update.
type FileSystemPatch struct {
	Provisioned *int64   `json:"provisioned,omitempty"`
	NFS         *NFSRule `json:"nfs,omitempty"`
	SMB         *SMBRule `json:"smb,omitempty"`
	Destroyed   *bool    `json:"destroyed,omitempty"`
}

// FileSystemSnapshot is the array's snapshot resource. Its name is always
// "<source>.<suffix>".
type FileSystemSnapshot struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Suffix    string `json:"suffix"`
	Destroyed bool   `json:"destroyed"`
}

// ExportProtocol selects which protocol an export rule applies to.
type ExportProtocol string

const (
	ExportProtocolNFS ExportProtocol = "nfs"
	ExportProtocolSMB ExportProtocol = "smb"
)

// ExportRule is one access-control entry of a filesystem export.
type ExportRule struct {
	Protocol ExportProtocol `json:"protocol"`

	// AccessType is "ip" for NFS client rules and "user" for SMB
	// principal permissions.
	AccessType string `json:"access_type"`

	// Target is the client address/network or user principal.
	Target string `json:"target"`

	// Permission is "rw" or "ro".
	Permission string `json:"permission"`
}

// ArraySpace is the array-wide capacity report.
type ArraySpace struct {
	Capacity int64 `json:"capacity"`
	Space    struct {
		TotalPhysical int64   `json:"total_physical"`
		Unique        int64   `json:"unique"`
		Snapshots     int64   `json:"snapshots"`
		DataReduction float64 `json:"data_reduction"`
	} `json:"space"`
}

// listResponse is the envelope every collection endpoint answers with.
type listResponse[T any] struct {
	Items []T `json:"items"`
}

// apiError is the error envelope of the management API.
type apiError struct {
	Errors []struct {
		Message string `json:"message"`
		Context string `json:"context,omitempty"`
	} `json:"errors"`
}

func (e *apiError) message() string {
	if len(e.Errors) > 0 && e.Errors[0].Message != "" {
		return e.Errors[0].Message
	}
	return "unknown array error"
}
