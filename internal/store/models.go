package store

import (
	"time"

	"pe-scenario-lab/backend/internal/scenario"
)

// Reference comps datasets.
const (
	DatasetValuation = "valuation"
	DatasetAssociate = "associate"
)

// Session scopes a management tracker's initiative list.
type Session struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InitiativeRecord is one persisted initiative; Position keeps list order.
type InitiativeRecord struct {
	ID            uint      `gorm:"primaryKey"`
	SessionID     string    `gorm:"size:36;index"`
	Position      int       `gorm:"index"`
	Name          string    `gorm:"size:255"`
	KPI           string    `gorm:"size:64"`
	Impact        float64
	EffectiveDate time.Time
	Complete      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Initiative converts the record to its domain form.
func (r InitiativeRecord) Initiative() scenario.Initiative {
	return scenario.Initiative{
		Name:          r.Name,
		KPI:           r.KPI,
		Impact:        r.Impact,
		EffectiveDate: r.EffectiveDate.UTC(),
		Complete:      r.Complete,
	}
}

// CompRecord is a peer company row of one reference dataset.
type CompRecord struct {
	ID             uint   `gorm:"primaryKey"`
	Dataset        string `gorm:"size:32;index"`
	Position       int
	Company        string `gorm:"size:128"`
	EBITDAMultiple float64
	Growth         float64
	Margin         float64
	IsTarget       bool
	UpdatedAt      time.Time
}

// Comp converts the record to its domain form.
func (r CompRecord) Comp() scenario.Comp {
	return scenario.Comp{
		Company:        r.Company,
		EBITDAMultiple: r.EBITDAMultiple,
		Growth:         r.Growth,
		Margin:         r.Margin,
		IsTarget:       r.IsTarget,
	}
}

// FinancialRecord is one row of the associate's raw data pack.
type FinancialRecord struct {
	ID        uint `gorm:"primaryKey"`
	Position  int
	Company   string `gorm:"size:128;uniqueIndex"`
	Revenue   float64
	EBITDA    float64
	Employees float64
	UpdatedAt time.Time
}

// Financial converts the record to its domain form.
func (r FinancialRecord) Financial() scenario.Financial {
	return scenario.Financial{Company: r.Company, Revenue: r.Revenue, EBITDA: r.EBITDA, Employees: r.Employees}
}
