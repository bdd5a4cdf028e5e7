package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nesterrovv/currencyexchange/internal/exchange/domain"
)

// InstrumentRepository stores instrument definitions so deployments can
// manage the catalog outside the config file.
type InstrumentRepository struct {
	db *gorm.DB
}

// NewInstrumentRepository creates a repository over db.
func NewInstrumentRepository(db *gorm.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// Migrate creates or updates the backing table.
func (r *InstrumentRepository) Migrate() error {
	return r.db.AutoMigrate(&InstrumentPO{})
}

// Seed upserts the given instruments, leaving existing rows' values intact
// so operator edits survive restarts.
func (r *InstrumentRepository) Seed(ctx context.Context, instruments []domain.Instrument) error {
	pos := make([]InstrumentPO, 0, len(instruments))
	for _, inst := range instruments {
		pos = append(pos, InstrumentPO{
			Symbol:    inst.Symbol,
			Median:    inst.Median,
			Amplitude: inst.Amplitude,
		})
	}
	if len(pos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "symbol"}}, DoNothing: true}).
		Create(&pos).Error
}

// Load returns all stored instruments.
func (r *InstrumentRepository) Load(ctx context.Context) ([]domain.Instrument, error) {
	var pos []InstrumentPO
	if err := r.db.WithContext(ctx).Order("symbol").Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("failed to load instruments: %w", err)
	}
	instruments := make([]domain.Instrument, 0, len(pos))
	for _, po := range pos {
		instruments = append(instruments, domain.Instrument{
			Symbol:    po.Symbol,
			Median:    po.Median,
			Amplitude: po.Amplitude,
		})
	}
	return instruments, nil
}
