package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bladeshare/bladeshare/internal/config"
	"github.com/bladeshare/bladeshare/internal/metrics"
	"github.com/bladeshare/bladeshare/internal/storage/array"
	"github.com/bladeshare/bladeshare/pkg/errors"
	"github.com/bladeshare/bladeshare/pkg/types"
)

const (
	driverVersion = "1.0.0"
	vendorName    = "BladeShare"
)

// ArrayAPI is the slice of the array facade the driver consumes. The
// concrete *array.Client satisfies it; tests substitute a fake.
type ArrayAPI interface {
	CreateFileSystem(ctx context.Context, fs array.FileSystem) (*array.FileSystem, error)
	GetFileSystem(ctx context.Context, name string) (*array.FileSystem, error)
	UpdateFileSystem(ctx context.Context, name string, patch array.FileSystemPatch) (*array.FileSystem, error)
	EradicateFileSystem(ctx context.Context, name string) error

	CreateSnapshot(ctx context.Context, source, suffix string) (*array.FileSystemSnapshot, error)
	GetSnapshot(ctx context.Context, name string) (*array.FileSystemSnapshot, error)
	DestroySnapshot(ctx context.Context, name string) error
	EradicateSnapshot(ctx context.Context, name string) error
	RestoreSnapshot(ctx context.Context, name string) error

	ListExportRules(ctx context.Context, filesystem string, protocol array.ExportProtocol) ([]array.ExportRule, error)
	AddExportRule(ctx context.Context, filesystem string, rule array.ExportRule) error
	RemoveExportRule(ctx context.Context, filesystem string, rule array.ExportRule) error

	GetArraySpace(ctx context.Context) (*array.ArraySpace, error)
}

// Driver is the share lifecycle manager. It holds no resource state of its
// own: every operation resolves names deterministically and reads current
// truth from the array, which is what makes each operation safe to invoke
// twice after a caller-side timeout.
type Driver struct {
	cfg       *config.Configuration
	array     ArrayAPI
	logger    *slog.Logger
	collector *metrics.Collector
}

var _ types.ShareDriver = (*Driver)(nil)

// New creates a driver bound to one array backend.
func New(cfg *config.Configuration, arrayAPI ArrayAPI, logger *slog.Logger, collector *metrics.Collector) (*Driver, error) {
	if cfg == nil {
		return nil, errors.NewError(errors.ErrCodeMissingConfig, "driver configuration is required")
	}
	if arrayAPI == nil {
		return nil, errors.NewError(errors.ErrCodeMissingConfig, "array client is required")
	}
	return &Driver{
		cfg:       cfg,
		array:     arrayAPI,
		logger:    logger.With("component", "driver", "backend", cfg.Backend.Name),
		collector: collector,
	}, nil
}

// CreateShare provisions a filesystem for the share spec. A retry that
// finds the identical filesystem already present succeeds; a name
// collision with different attributes is a conflict.
func (d *Driver) CreateShare(ctx context.Context, spec types.ShareSpec) (handle *types.ShareHandle, err error) {
	defer d.observe("create_share", time.Now(), &err)

	if spec.SizeBytes <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidState, "share size must be positive, got %d", spec.SizeBytes).
			WithComponent("driver").WithOperation("create_share")
	}
	if spec.Protocol != types.ProtocolNFS && spec.Protocol != types.ProtocolCIFS {
		return nil, errors.Newf(errors.ErrCodeUnsupported, "unsupported share protocol %q", spec.Protocol).
			WithComponent("driver").WithOperation("create_share")
	}

	name, err := NameFor(KindShare, spec.ID)
	if err != nil {
		return nil, err
	}

	existing, err := d.array.GetFileSystem(ctx, name)
	switch {
	case err == nil:
		if conflict := d.createConflict(existing, spec); conflict != nil {
			return nil, conflict
		}
		d.logger.Info("share already present, treating create as success",
			"share", spec.ID, "filesystem", name)
		return d.handleFor(spec.ID, name, spec.Protocol), nil
	case !errors.IsCode(err, errors.ErrCodeNotFound):
		return nil, err
	}

	fs := array.FileSystem{
		Name:                       name,
		Provisioned:                spec.SizeBytes,
		HardLimitEnabled:           true,
		FastRemoveDirectoryEnabled: true,
		SnapshotDirectoryEnabled:   true,
	}
	enabled := true
	switch spec.Protocol {
	case types.ProtocolNFS:
		fs.NFS = &array.NFSRule{V3Enabled: &enabled, V41Enabled: &enabled, Rules: ""}
	case types.ProtocolCIFS:
		fs.SMB = &array.SMBRule{Enabled: &enabled}
	}

	if _, err := d.array.CreateFileSystem(ctx, fs); err != nil {
		return nil, err
	}

	d.logger.Info("share created",
		"share", spec.ID,
		"filesystem", name,
		"protocol", spec.Protocol,
		"size", humanize.IBytes(uint64(spec.SizeBytes)))
	return d.handleFor(spec.ID, name, spec.Protocol), nil
}

// createConflict decides whether an existing filesystem satisfies an
// idempotent create retry or collides with it.
func (d *Driver) createConflict(existing *array.FileSystem, spec types.ShareSpec) error {
	conflict := func(reason string) error {
		return errors.Newf(errors.ErrCodeResourceConflict,
			"filesystem %q already exists with %s", existing.Name, reason).
			WithComponent("driver").WithOperation("create_share").
			WithDetail("share_id", spec.ID)
	}
	if existing.Destroyed {
		return conflict("pending eradication")
	}
	if existing.Provisioned != spec.SizeBytes {
		return conflict(fmt.Sprintf("size %d, requested %d", existing.Provisioned, spec.SizeBytes))
	}
	if !protocolEnabled(existing, spec.Protocol) {
		return conflict(fmt.Sprintf("a different protocol than %s", spec.Protocol))
	}
	return nil
}

// EnsureShare verifies the share's filesystem is present and serving.
// Filesystems on this array are always exported, so presence is the whole
// check.
func (d *Driver) EnsureShare(ctx context.Context, handle types.ShareHandle) (err error) {
	defer d.observe("ensure_share", time.Now(), &err)

	name, err := d.filesystemName(handle)
	if err != nil {
		return err
	}
	fs, err := d.array.GetFileSystem(ctx, name)
	if err != nil {
		return err
	}
	if fs.Destroyed {
		return errors.Newf(errors.ErrCodeInvalidState, "filesystem %q is pending eradication", name).
			WithComponent("driver").WithOperation("ensure_share")
	}
	return nil
}

// DeleteShare destroys the share's filesystem, eradicating it when the
// backend policy says so. An already-absent filesystem is a success.
func (d *Driver) DeleteShare(ctx context.Context, handle types.ShareHandle) (err error) {
	defer d.observe("delete_share", time.Now(), &err)

	name, err := d.filesystemName(handle)
	if err != nil {
		return err
	}

	fs, err := d.array.GetFileSystem(ctx, name)
	if errors.IsCode(err, errors.ErrCodeNotFound) {
		d.logger.Info("share already absent, treating delete as success",
			"share", handle.ID, "filesystem", name)
		return nil
	}
	if err != nil {
		return err
	}

	if !fs.Destroyed {
		// Disable both protocols before destroying so clients are cut
		// off even if eradication is deferred.
		disabled := false
		destroyed := true
		patch := array.FileSystemPatch{
			NFS:       &array.NFSRule{V3Enabled: &disabled, V41Enabled: &disabled},
			SMB:       &array.SMBRule{Enabled: &disabled},
			Destroyed: &destroyed,
		}
		if _, err := d.array.UpdateFileSystem(ctx, name, patch); err != nil {
			return err
		}
	}

	if d.cfg.Backend.EradicateOnDelete {
		if err := d.array.EradicateFileSystem(ctx, name); err != nil && !errors.IsCode(err, errors.ErrCodeNotFound) {
			return err
		}
		d.logger.Info("share eradicated", "share", handle.ID, "filesystem", name)
		return nil
	}

	d.logger.Info("share destroyed, pending eradication", "share", handle.ID, "filesystem", name)
	return nil
}

// ExtendShare grows the share's provisioned capacity.
func (d *Driver) ExtendShare(ctx context.Context, handle types.ShareHandle, newSizeBytes int64) (err error) {
	defer d.observe("extend_share", time.Now(), &err)
	return d.resize(ctx, handle, newSizeBytes, false)
}

// ShrinkShare reduces provisioned capacity, refusing to go below the
// array-reported used space.
func (d *Driver) ShrinkShare(ctx context.Context, handle types.ShareHandle, newSizeBytes int64) (err error) {
	defer d.observe("shrink_share", time.Now(), &err)
	return d.resize(ctx, handle, newSizeBytes, true)
}

func (d *Driver) resize(ctx context.Context, handle types.ShareHandle, newSizeBytes int64, shrink bool) error {
	op := "extend_share"
	if shrink {
		op = "shrink_share"
	}
	if newSizeBytes <= 0 {
		return errors.Newf(errors.ErrCodeInvalidState, "share size must be positive, got %d", newSizeBytes).
			WithComponent("driver").WithOperation(op)
	}

	name, err := d.filesystemName(handle)
	if err != nil {
		return err
	}

	fs, err := d.array.GetFileSystem(ctx, name)
	if err != nil {
		return err
	}

	if shrink && fs.Space != nil && newSizeBytes < fs.Space.Virtual {
		return errors.Newf(errors.ErrCodeCapacityError,
			"cannot shrink %q to %s: %s in use", name,
			humanize.IBytes(uint64(newSizeBytes)), humanize.IBytes(uint64(fs.Space.Virtual))).
			WithComponent("driver").WithOperation(op).
			WithDetail("used_bytes", fs.Space.Virtual).
			WithDetail("requested_bytes", newSizeBytes)
	}

	if fs.Provisioned == newSizeBytes {
		return nil
	}

	patch := array.FileSystemPatch{Provisioned: &newSizeBytes}
	if _, err := d.array.UpdateFileSystem(ctx, name, patch); err != nil {
		return err
	}

	d.logger.Info("share resized",
		"share", handle.ID,
		"filesystem", name,
		"size", humanize.IBytes(uint64(newSizeBytes)))
	return nil
}

// CreateSnapshot captures a point-in-time snapshot of the share's
// filesystem. A retry that finds the identical snapshot succeeds.
func (d *Driver) CreateSnapshot(ctx context.Context, handle types.ShareHandle, spec types.SnapshotSpec) (snap *types.SnapshotHandle, err error) {
	defer d.observe("create_snapshot", time.Now(), &err)

	name, err := d.filesystemName(handle)
	if err != nil {
		return nil, err
	}
	suffix, err := SnapshotSuffix(spec.ID)
	if err != nil {
		return nil, err
	}
	snapshotName := name + "." + suffix

	existing, err := d.array.GetSnapshot(ctx, snapshotName)
	switch {
	case err == nil:
		if existing.Destroyed {
			return nil, errors.Newf(errors.ErrCodeResourceConflict,
				"snapshot %q exists but is pending eradication", snapshotName).
				WithComponent("driver").WithOperation("create_snapshot")
		}
		d.logger.Info("snapshot already present, treating create as success",
			"share", handle.ID, "snapshot", snapshotName)
		return d.snapshotHandleFor(handle.ID, spec.ID, name, snapshotName), nil
	case !errors.IsCode(err, errors.ErrCodeNotFound):
		return nil, err
	}

	if _, err := d.array.CreateSnapshot(ctx, name, suffix); err != nil {
		return nil, err
	}

	d.logger.Info("snapshot created", "share", handle.ID, "snapshot", snapshotName)
	return d.snapshotHandleFor(handle.ID, spec.ID, name, snapshotName), nil
}

// DeleteSnapshot destroys a snapshot, eradicating per policy. An
// already-absent snapshot is a success.
func (d *Driver) DeleteSnapshot(ctx context.Context, snapshot types.SnapshotHandle) (err error) {
	defer d.observe("delete_snapshot", time.Now(), &err)

	snapshotName, err := d.snapshotName(snapshot)
	if err != nil {
		return err
	}

	existing, err := d.array.GetSnapshot(ctx, snapshotName)
	if errors.IsCode(err, errors.ErrCodeNotFound) {
		d.logger.Info("snapshot already absent, treating delete as success",
			"snapshot", snapshotName)
		return nil
	}
	if err != nil {
		return err
	}

	if !existing.Destroyed {
		if err := d.array.DestroySnapshot(ctx, snapshotName); err != nil {
			return err
		}
	}

	if d.cfg.Backend.EradicateOnDelete {
		if err := d.array.EradicateSnapshot(ctx, snapshotName); err != nil && !errors.IsCode(err, errors.ErrCodeNotFound) {
			return err
		}
		d.logger.Info("snapshot eradicated", "snapshot", snapshotName)
		return nil
	}

	d.logger.Info("snapshot destroyed, pending eradication", "snapshot", snapshotName)
	return nil
}

// RevertToSnapshot restores the share's filesystem to the snapshot's
// point in time. The snapshot must belong to that filesystem.
func (d *Driver) RevertToSnapshot(ctx context.Context, handle types.ShareHandle, snapshot types.SnapshotHandle) (err error) {
	defer d.observe("revert_to_snapshot", time.Now(), &err)

	name, err := d.filesystemName(handle)
	if err != nil {
		return err
	}
	snapshotName, err := d.snapshotName(snapshot)
	if err != nil {
		return err
	}

	scopeErr := func(reason string) error {
		return errors.Newf(errors.ErrCodeInvalidState,
			"snapshot %q does not belong to share %q: %s", snapshotName, handle.ID, reason).
			WithComponent("driver").WithOperation("revert_to_snapshot")
	}
	if snapshot.ShareID != handle.ID {
		return scopeErr("share id mismatch")
	}

	existing, err := d.array.GetSnapshot(ctx, snapshotName)
	if err != nil {
		return err
	}
	if existing.Source != name {
		return scopeErr(fmt.Sprintf("snapshot source is %q, share filesystem is %q", existing.Source, name))
	}
	if existing.Destroyed {
		return errors.Newf(errors.ErrCodeInvalidState, "snapshot %q is pending eradication", snapshotName).
			WithComponent("driver").WithOperation("revert_to_snapshot")
	}

	if err := d.array.RestoreSnapshot(ctx, snapshotName); err != nil {
		return err
	}

	d.logger.Info("share reverted to snapshot", "share", handle.ID, "snapshot", snapshotName)
	return nil
}

// UpdateAccess reconciles the share's live export rules against the
// declared set. The live set is diffed, not replaced, so clients whose
// rules are unchanged never lose access during the update. The call
// succeeds when every supported rule was applied; unsupported rules are
// reported in the outcome list without failing the batch.
func (d *Driver) UpdateAccess(ctx context.Context, handle types.ShareHandle, declared []types.AccessRule) (outcomes []types.RuleOutcome, err error) {
	defer d.observe("update_access", time.Now(), &err)

	name, err := d.filesystemName(handle)
	if err != nil {
		return nil, err
	}
	if _, err := d.array.GetFileSystem(ctx, name); err != nil {
		return nil, err
	}

	exportProto, err := exportProtocolFor(handle.Protocol)
	if err != nil {
		return nil, err
	}

	wireRules, err := d.array.ListExportRules(ctx, name, exportProto)
	if err != nil {
		return nil, err
	}
	current := make([]types.AccessRule, 0, len(wireRules))
	for _, wr := range wireRules {
		current = append(current, accessRuleFromWire(wr))
	}

	plan := Reconcile(handle.Protocol, current, declared)

	// Removals first: a level change must never widen access, even
	// transiently.
	for _, rule := range plan.ToRemove {
		if err := d.array.RemoveExportRule(ctx, name, accessRuleToWire(exportProto, rule)); err != nil {
			return nil, err
		}
	}
	for _, rule := range plan.ToAdd {
		if err := d.array.AddExportRule(ctx, name, accessRuleToWire(exportProto, rule)); err != nil {
			return nil, err
		}
	}

	applied := make(map[types.AccessRule]types.RuleStatus, len(plan.ToAdd)+len(plan.Unchanged))
	for _, rule := range plan.ToAdd {
		applied[rule] = types.RuleApplied
	}
	for _, rule := range plan.Unchanged {
		applied[rule] = types.RuleUnchanged
	}
	unsupported := make(map[types.AccessRule]types.RuleOutcome, len(plan.Unsupported))
	for _, outcome := range plan.Unsupported {
		unsupported[outcome.Rule] = outcome
	}

	outcomes = make([]types.RuleOutcome, 0, len(declared))
	for _, rule := range declared {
		if outcome, ok := unsupported[rule]; ok {
			outcomes = append(outcomes, outcome)
			continue
		}
		outcomes = append(outcomes, types.RuleOutcome{Rule: rule, Status: applied[rule]})
	}

	d.logger.Info("access rules reconciled",
		"share", handle.ID,
		"filesystem", name,
		"added", len(plan.ToAdd),
		"removed", len(plan.ToRemove),
		"unchanged", len(plan.Unchanged),
		"unsupported", len(plan.Unsupported))
	return outcomes, nil
}

func (d *Driver) observe(op string, start time.Time, err *error) {
	d.collector.ObserveOperation(op, time.Since(start), *err)
	if *err != nil {
		d.logger.Warn("operation failed", "operation", op, "error", *err)
	}
}

func (d *Driver) filesystemName(handle types.ShareHandle) (string, error) {
	if handle.FilesystemName != "" {
		return handle.FilesystemName, nil
	}
	return NameFor(KindShare, handle.ID)
}

func (d *Driver) snapshotName(snapshot types.SnapshotHandle) (string, error) {
	if snapshot.SnapshotName != "" {
		return snapshot.SnapshotName, nil
	}
	fsName := snapshot.FilesystemName
	if fsName == "" {
		var err error
		fsName, err = NameFor(KindShare, snapshot.ShareID)
		if err != nil {
			return "", err
		}
	}
	suffix, err := SnapshotSuffix(snapshot.ID)
	if err != nil {
		return "", err
	}
	return fsName + "." + suffix, nil
}

func (d *Driver) handleFor(shareID, fsName string, protocol types.Protocol) *types.ShareHandle {
	return &types.ShareHandle{
		ID:             shareID,
		FilesystemName: fsName,
		Protocol:       protocol,
		ExportLocation: d.exportLocation(protocol, fsName),
	}
}

func (d *Driver) snapshotHandleFor(shareID, snapID, fsName, snapshotName string) *types.SnapshotHandle {
	return &types.SnapshotHandle{
		ShareID:        shareID,
		ID:             snapID,
		FilesystemName: fsName,
		SnapshotName:   snapshotName,
	}
}

// exportLocation builds the path clients mount, from the data VIP.
func (d *Driver) exportLocation(protocol types.Protocol, fsName string) string {
	if protocol == types.ProtocolCIFS {
		return fmt.Sprintf(`\\%s\%s`, d.cfg.Backend.DataEndpoint, fsName)
	}
	return fmt.Sprintf("%s:/%s", d.cfg.Backend.DataEndpoint, fsName)
}

func protocolEnabled(fs *array.FileSystem, protocol types.Protocol) bool {
	switch protocol {
	case types.ProtocolNFS:
		return fs.NFS != nil &&
			((fs.NFS.V3Enabled != nil && *fs.NFS.V3Enabled) ||
				(fs.NFS.V41Enabled != nil && *fs.NFS.V41Enabled))
	case types.ProtocolCIFS:
		return fs.SMB != nil && fs.SMB.Enabled != nil && *fs.SMB.Enabled
	default:
		return false
	}
}

func exportProtocolFor(protocol types.Protocol) (array.ExportProtocol, error) {
	switch protocol {
	case types.ProtocolNFS:
		return array.ExportProtocolNFS, nil
	case types.ProtocolCIFS:
		return array.ExportProtocolSMB, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnsupported, "unsupported share protocol %q", protocol)
	}
}

func accessRuleFromWire(rule array.ExportRule) types.AccessRule {
	return types.AccessRule{
		Type:     types.AccessType(rule.AccessType),
		AccessTo: rule.Target,
		Level:    types.AccessLevel(rule.Permission),
	}
}

func accessRuleToWire(protocol array.ExportProtocol, rule types.AccessRule) array.ExportRule {
	return array.ExportRule{
		Protocol:   protocol,
		AccessType: string(rule.Type),
		Target:     rule.AccessTo,
		Permission: string(rule.Level),
	}
}
