package driver

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bladeshare/bladeshare/pkg/types"
)

// Stats reports array capacity and driver capabilities for scheduling.
// Free space is derived from total capacity minus the physical footprint,
// so it reflects data reduction rather than provisioned sizes.
func (d *Driver) Stats(ctx context.Context) (stats *types.BackendStats, err error) {
	defer d.observe("stats", time.Now(), &err)

	space, err := d.array.GetArraySpace(ctx)
	if err != nil {
		return nil, err
	}

	free := space.Capacity - space.Space.TotalPhysical
	if free < 0 {
		free = 0
	}

	stats = &types.BackendStats{
		BackendName:     d.cfg.Backend.Name,
		VendorName:      vendorName,
		DriverVersion:   driverVersion,
		StorageProtocol: "NFS_CIFS",

		TotalCapacityBytes: space.Capacity,
		FreeCapacityBytes:  free,
		ProvisionedBytes:   space.Space.Unique,
		DataReduction:      space.Space.DataReduction,

		SnapshotSupport:                true,
		RevertToSnapshotSupport:        true,
		CreateShareFromSnapshotSupport: false,
	}

	d.collector.SetCapacity(stats.TotalCapacityBytes, stats.FreeCapacityBytes, stats.ProvisionedBytes)
	d.collector.SetDataReduction(stats.DataReduction)

	d.logger.Debug("backend stats refreshed",
		"total", humanize.IBytes(uint64(stats.TotalCapacityBytes)),
		"free", humanize.IBytes(uint64(stats.FreeCapacityBytes)),
		"data_reduction", stats.DataReduction)
	return stats, nil
}

// CheckArray probes the management API with a cheap read. The health
// tracker uses it to report whether the array is reachable.
func (d *Driver) CheckArray(ctx context.Context) error {
	_, err := d.array.GetArraySpace(ctx)
	return err
}
