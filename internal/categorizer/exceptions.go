package categorizer

import (
	"strings"

	"banka/ingest/internal/models"
)

// Exception is a one-off correction or removal keyed on exact substrings or
// exact references. Every non-empty condition must hold.
type Exception models.ExceptionRuleConfig

// Matches reports whether the exception applies to tx.
func (e Exception) Matches(tx models.Transaction) bool {
	if e.DescriptionContains == "" && e.ReferenceEquals == "" &&
		e.ReferenceContains == "" && e.ConceptContains == "" {
		return false
	}
	if e.DescriptionContains != "" && !strings.Contains(tx.Description, e.DescriptionContains) {
		return false
	}
	if e.ReferenceEquals != "" && tx.Reference != e.ReferenceEquals {
		return false
	}
	if e.ReferenceContains != "" && !strings.Contains(tx.Reference, e.ReferenceContains) {
		return false
	}
	if e.ConceptContains != "" && !strings.Contains(tx.Concept, e.ConceptContains) {
		return false
	}
	return true
}

// NewExceptions converts exception configuration into the exception layer.
func NewExceptions(cfgs []models.ExceptionRuleConfig) []Exception {
	out := make([]Exception, len(cfgs))
	for i, c := range cfgs {
		out[i] = Exception(c)
	}
	return out
}

// DefaultExceptions returns the built-in exception layer: fund movements of a
// property purchase and a duplicate mortgage payment left by account linking.
func DefaultExceptions() []Exception {
	return NewExceptions([]models.ExceptionRuleConfig{
		{
			Name:                "property purchase loan",
			DescriptionContains: "60103201400943H0000",
			ReferenceContains:   "40094370000",
			Action:              models.ExceptionSet,
			Category:            CategoryRealEstate,
			Subcategory:         "Prestamo_Ibercaja",
		},
		{
			Name:                "mortgage cancellation",
			DescriptionContains: "CANCELACION HIPOTECA",
			Action:              models.ExceptionSet,
			Category:            CategoryRealEstate,
			Subcategory:         "Cancelacion_Hipoteca",
		},
		{
			Name:                "property transfer",
			DescriptionContains: "TRANSMISION INMUEBLE",
			Action:              models.ExceptionSet,
			Category:            CategoryRealEstate,
			Subcategory:         "Cancelacion_Hipoteca",
		},
		{
			Name:            "purchase funds provision",
			ReferenceEquals: "6010301400943",
			Action:          models.ExceptionSet,
			Category:        CategoryRealEstate,
			Subcategory:     "Provision_Fondos",
		},
		{
			Name:            "purchase fees",
			ConceptContains: "COMISIONES Y GASTOS VARIOS",
			Action:          models.ExceptionSet,
			Category:        CategoryRealEstate,
			Subcategory:     "Provision_Fondos",
		},
		{
			Name:                "joint revolut opening",
			DescriptionContains: "MOVIMIENTO CONJUNTA REVOLUT A CONJUNTA",
			Action:              models.ExceptionSet,
			Category:            CategoryTransfer,
			Subcategory:         "Inicio_Conjunta_Revolut",
		},
		{
			Name:                "duplicated mortgage payment",
			DescriptionContains: "PAGO HIPOTECA",
			ReferenceEquals:     "6010303307165",
			Action:              models.ExceptionRemove,
		},
	})
}
