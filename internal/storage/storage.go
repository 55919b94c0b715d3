package storage

import "github.com/Uniswap/liquidity-launcher-sub001/internal/model"

// Storage defines a sink for launch run records.
type Storage interface {
	PutLaunch(record model.LaunchRecord) error
	PutMigration(record model.MigrationRecord) error
	PutPlanOps(ops []model.PlanOpRecord) error
	PutSweeps(sweeps []model.SweepRecord) error
}

// Multi fans records out to every sink, stopping at the first error.
type Multi []Storage

func (m Multi) PutLaunch(record model.LaunchRecord) error {
	for _, s := range m {
		if err := s.PutLaunch(record); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) PutMigration(record model.MigrationRecord) error {
	for _, s := range m {
		if err := s.PutMigration(record); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) PutPlanOps(ops []model.PlanOpRecord) error {
	for _, s := range m {
		if err := s.PutPlanOps(ops); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) PutSweeps(sweeps []model.SweepRecord) error {
	for _, s := range m {
		if err := s.PutSweeps(sweeps); err != nil {
			return err
		}
	}
	return nil
}
