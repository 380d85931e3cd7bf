package types

import (
	"fmt"
	"strings"
)

// Protocol identifies the file-sharing protocol a share is served over.
type Protocol string

const (
	ProtocolNFS  Protocol = "NFS"
	ProtocolCIFS Protocol = "CIFS"
)

// ParseProtocol normalizes a protocol string. SMB is accepted as an alias
// for CIFS.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NFS":
		return ProtocolNFS, nil
	case "CIFS", "SMB":
		return ProtocolCIFS, nil
	default:
		return "", fmt.Errorf("unknown share protocol: %q", s)
	}
}

// AccessType says what kind of principal an access rule matches.
type AccessType string

const (
	AccessTypeIP   AccessType = "ip"
	AccessTypeUser AccessType = "user"
)

// AccessLevel is the permission granted by an access rule.
type AccessLevel string

const (
	AccessLevelRW AccessLevel = "rw"
	AccessLevelRO AccessLevel = "ro"
)

// AccessRule is one entry of a share's declared access list. Two rules are
// the same rule only when all three fields match; a level change is a
// different rule.
type AccessRule struct {
	Type     AccessType  `json:"access_type"`
	AccessTo string      `json:"access_to"`
	Level    AccessLevel `json:"access_level"`
}

func (r AccessRule) String() string {
	return fmt.Sprintf("%s:%s:%s", r.Type, r.AccessTo, r.Level)
}

// RuleStatus is the per-rule outcome of an access update.
type RuleStatus string

const (
	// RuleApplied means the rule is now live on the array.
	RuleApplied RuleStatus = "applied"

	// RuleUnchanged means the rule was already live and was left alone.
	RuleUnchanged RuleStatus = "unchanged"

	// RuleUnsupported means the array cannot express the rule for the
	// share's protocol. The rest of the batch still applies.
	RuleUnsupported RuleStatus = "unsupported"
)

// RuleOutcome reports what happened to a single declared rule.
type RuleOutcome struct {
	Rule    AccessRule `json:"rule"`
	Status  RuleStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// ShareSpec is the orchestrator's request to create a share.
type ShareSpec struct {
	// ID is the orchestrator-assigned share identifier.
	ID string `json:"id"`

	// SizeBytes is the provisioned capacity of the share.
	SizeBytes int64 `json:"size_bytes"`

	// Protocol the share is served over.
	Protocol Protocol `json:"protocol"`
}

// ShareHandle identifies a created share and where clients mount it.
type ShareHandle struct {
	ID             string   `json:"id"`
	FilesystemName string   `json:"filesystem_name"`
	Protocol       Protocol `json:"protocol"`
	ExportLocation string   `json:"export_location"`
}

// SnapshotSpec is the orchestrator's request to snapshot a share.
type SnapshotSpec struct {
	// ID is the orchestrator-assigned snapshot identifier, used as the
	// snapshot suffix on the array.
	ID string `json:"id"`
}

// SnapshotHandle identifies a snapshot of a share. SnapshotName is the
// array-side name, always "<filesystem>.<suffix>".
type SnapshotHandle struct {
	ShareID        string `json:"share_id"`
	ID             string `json:"id"`
	FilesystemName string `json:"filesystem_name"`
	SnapshotName   string `json:"snapshot_name"`
}

// BackendStats is the capability and capacity report consumed by the
// orchestrator's scheduler.
type BackendStats struct {
	BackendName   string `json:"backend_name"`
	VendorName    string `json:"vendor_name"`
	DriverVersion string `json:"driver_version"`

	// StorageProtocol lists the protocols this backend serves.
	StorageProtocol string `json:"storage_protocol"`

	TotalCapacityBytes int64   `json:"total_capacity_bytes"`
	FreeCapacityBytes  int64   `json:"free_capacity_bytes"`
	ProvisionedBytes   int64   `json:"provisioned_bytes"`
	DataReduction      float64 `json:"data_reduction"`

	SnapshotSupport                bool `json:"snapshot_support"`
	RevertToSnapshotSupport        bool `json:"revert_to_snapshot_support"`
	CreateShareFromSnapshotSupport bool `json:"create_share_from_snapshot_support"`
}
