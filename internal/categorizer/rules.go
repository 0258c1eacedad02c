package categorizer

import (
	"fmt"
	"regexp"

	"banka/ingest/internal/models"
)

// Category names that trigger secondary extraction.
const (
	CategoryBizum        = "bizum"
	CategoryTransfer     = "Transferencia"
	CategoryRestaurants  = "Restaurantes"
	CategoryBank         = "Banco"
	CategoryHousing      = "Vivienda"
	CategoryRealEstate   = "Compra_Inmueble"
	SubcategoryMortgage  = "Hipoteca"
	SubcategoryInterests = "Intereses"
)

// Rule maps a description pattern to a category. Rules are evaluated in
// order against the upper-cased description and the first match wins.
type Rule struct {
	Pattern     *regexp.Regexp
	Category    string
	Subcategory string
}

// CompileRules turns rule configuration into an ordered rule table.
func CompileRules(cfgs []models.CategoryRuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for i, c := range cfgs {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): invalid pattern %q: %w", i, c.Category, c.Pattern, err)
		}
		rules = append(rules, Rule{Pattern: re, Category: c.Category, Subcategory: c.Subcategory})
	}
	return rules, nil
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	rules, err := CompileRules(DefaultRuleConfigs())
	if err != nil {
		panic(err)
	}
	return rules
}

// DefaultRuleConfigs is the built-in ordered table. Specific merchants come
// before the generic pattern of their category.
func DefaultRuleConfigs() []models.CategoryRuleConfig {
	return []models.CategoryRuleConfig{
		// Nómina
		{Pattern: `INDRA`, Category: "nomina", Subcategory: "INDRA"},
		{Pattern: `NOMINA`, Category: "nomina", Subcategory: "EX-EMPRESA"},

		{Pattern: `BIZUM`, Category: CategoryBizum},

		// Suministros
		{Pattern: `RECIBO AGUA|CANAL DE ISABEL`, Category: "Suministros", Subcategory: "Agua"},
		{Pattern: `RECIBO LUZ|IBERDROLA|ENDESA|NATURGY|REPSOL LUZ`, Category: "Suministros", Subcategory: "Luz"},
		{Pattern: `RECIBO GAS|GAS NATURAL|COMERCIALIZADORA RE`, Category: "Suministros", Subcategory: "Gas"},
		{Pattern: `RECIBO TELEFON|MOVISTAR|VODAFONE|ORANGE|YOIGO|MASMOVIL`, Category: "Suministros", Subcategory: "Telefono"},
		{Pattern: `COMUNIDAD PROPIETARIOS|COM\. PROP`, Category: "Suministros", Subcategory: "Comunidad"},

		// BienEstar
		{Pattern: `WELLHUB|DREAMFIT|DEPORTIVO`, Category: "BienEstar", Subcategory: "Gimnasio"},
		{Pattern: `BEARBERO EMBAJADORES`, Category: "BienEstar", Subcategory: "Peluquero"},
		{Pattern: `CURSOR`, Category: "BienEstar", Subcategory: "Cursor"},
		{Pattern: `DOUGLAS`, Category: "BienEstar", Subcategory: "Douglas"},
		{Pattern: `DRUNI`, Category: "BienEstar", Subcategory: "Druni"},
		{Pattern: `NOTINO`, Category: "BienEstar", Subcategory: "Notino"},
		{Pattern: `PRIMOR`, Category: "BienEstar", Subcategory: "Primor"},
		{Pattern: `HIERBA EN FLOR`, Category: "BienEstar", Subcategory: "Floristeria"},

		{Pattern: `KINEPOLIS`, Category: "OCIO", Subcategory: "Kinepolis"},

		// Seguros
		{Pattern: `IBERVIDA`, Category: "Seguros", Subcategory: "Vida"},
		{Pattern: `OPERACION CSV`, Category: "Seguros", Subcategory: "Hogar"},
		{Pattern: `SEGURO`, Category: "Seguros"},

		{Pattern: `HIPOTECA|OPERACION PRESTAMO-CREDITO-AVAL`, Category: CategoryHousing, Subcategory: SubcategoryMortgage},

		// Restaurantes: merchants before transport so UBER EATS is not a ride
		{Pattern: `UBER EATS`, Category: CategoryRestaurants, Subcategory: "UBER EATS"},

		// Transporte
		{Pattern: `REPSOL|CEPSA|BP |SHELL|GASOLINER`, Category: "Transporte", Subcategory: "Gasolina"},
		{Pattern: `VALDEBERNARDO`, Category: "Transporte", Subcategory: "Gasolina"},
		{Pattern: `GASLOWCOST|PETROPRIX`, Category: "Transporte", Subcategory: "Gasolina"},
		{Pattern: `TAXI|BLA BLA`, Category: "Transporte", Subcategory: "Taxi"},
		{Pattern: `CABIFY`, Category: "Transporte", Subcategory: "CABIFY"},
		{Pattern: `UBER`, Category: "Transporte", Subcategory: "UBER"},
		{Pattern: `RENFE|METRO|EMT|AUTOBUS`, Category: "Transporte", Subcategory: "Transporte Público"},
		{Pattern: `EASYPARK`, Category: "Transporte", Subcategory: "EASYPARK"},
		{Pattern: `PARKING`, Category: "Transporte", Subcategory: "PARKING"},
		{Pattern: `AMOVENS`, Category: "Transporte", Subcategory: "Amovens_Alquiler_Furgo"},
		{Pattern: `SEITT|VIA-T`, Category: "Transporte", Subcategory: "Peaje"},

		// Hogar
		{Pattern: `JYSK`, Category: "Hogar", Subcategory: "JYSK"},
		{Pattern: `IKEA`, Category: "Hogar", Subcategory: "IKEA"},
		{Pattern: `LEROY`, Category: "Hogar", Subcategory: "LEROY MERLIN"},
		{Pattern: `HIPERHOGAR`, Category: "Hogar"},
		{Pattern: `AMAZON`, Category: "Hogar", Subcategory: "Amazon"},
		{Pattern: `HOGARDEXTER`, Category: "Hogar", Subcategory: "Hogardexter"},

		// Supermercado
		{Pattern: `CARREF`, Category: "Supermercado", Subcategory: "Carrefour"},
		{Pattern: `MERCADONA`, Category: "Supermercado", Subcategory: "Mercadona"},
		{Pattern: `LIDL`, Category: "Supermercado", Subcategory: "Lidl"},
		{Pattern: `ALDI`, Category: "Supermercado", Subcategory: "Aldi"},
		{Pattern: `DIA `, Category: "Supermercado", Subcategory: "Dia"},
		{Pattern: `AUCHAN |ALCAMPO `, Category: "Supermercado", Subcategory: "Alcampo"},
		{Pattern: `AHORRAMAS `, Category: "Supermercado", Subcategory: "Ahorramas"},
		{Pattern: `LA VIDA VERDE `, Category: "Supermercado", Subcategory: "General"},

		// Restaurantes
		{Pattern: `DI CARLO`, Category: CategoryRestaurants, Subcategory: "Pizzeria Di Carlo"},
		{Pattern: `BURGER KING`, Category: CategoryRestaurants, Subcategory: "Burger King"},
		{Pattern: `DEEVENTOSS`, Category: CategoryRestaurants, Subcategory: "DeEventoss"},
		{Pattern: `DELIKIA`, Category: CategoryRestaurants, Subcategory: "DELIKIA CAFE"},
		{Pattern: `SIEMENS GETAFE`, Category: CategoryRestaurants, Subcategory: "Siemens CAFE"},
		{Pattern: `GARELOS`, Category: CategoryRestaurants, Subcategory: "Cena EMPRESA GARELOS"},
		{Pattern: `LABRANZA`, Category: CategoryRestaurants, Subcategory: "La Labranza"},
		{Pattern: `MARIMER`, Category: CategoryRestaurants, Subcategory: "Marimer"},
		{Pattern: `MESON ORO Y PLATA`, Category: CategoryRestaurants, Subcategory: "Meson Oro Y Plata"},
		{Pattern: `PILAR AKANEYA`, Category: CategoryRestaurants, Subcategory: "PILAR AKANEYA"},
		{Pattern: `TASTE`, Category: CategoryRestaurants, Subcategory: "TOY&TASTE"},
		{Pattern: `RESTAURANTE|TABERNA|\bBAR\b|CERVECERIA|CAFETERIA|CONSUMICI|RTE `, Category: CategoryRestaurants},

		// Ropa
		{Pattern: `ZARA`, Category: "Ropa", Subcategory: "ZARA"},
		{Pattern: `H&M`, Category: "Ropa", Subcategory: "H&M"},
		{Pattern: `PULL`, Category: "Ropa", Subcategory: "PULL&BEAR"},
		{Pattern: `BERSHKA`, Category: "Ropa", Subcategory: "BERSHKA"},
		{Pattern: `MANGO`, Category: "Ropa", Subcategory: "MANGO"},
		{Pattern: `PRIMARK`, Category: "Ropa", Subcategory: "PRIMARK"},
		{Pattern: `JACK JONES`, Category: "Ropa", Subcategory: "JACK & JONES"},
		{Pattern: `ALVARO MORENO`, Category: "Ropa", Subcategory: "ALVARO MORENO"},
		{Pattern: `SINGULARU`, Category: "Ropa", Subcategory: "Singularu"},
		{Pattern: `UNIQLO`, Category: "Ropa", Subcategory: "UNIQLO"},

		// Transferencias
		{Pattern: `TRANSFERENCIA INTERNA`, Category: CategoryTransfer, Subcategory: "Interna_Ibercaja"},
		{Pattern: `MYINVESTOR`, Category: CategoryTransfer, Subcategory: "MyInvestor"},
		{Pattern: `REVOLUT\*\*|ENVIADA DESDE REVOLUT`, Category: CategoryTransfer, Subcategory: "Revolut"},
		{Pattern: `TRANSFERENCIA`, Category: CategoryTransfer},
		{Pattern: `UNA RECARGA DE APPLE PAY CON`, Category: CategoryTransfer, Subcategory: "Recarga"},
		{Pattern: `RETIRADA DE EFECTIVO`, Category: CategoryTransfer, Subcategory: "CAJERO"},

		{Pattern: `COMISION|LIQUIDACION INTERESES`, Category: "banco"},

		// Inversiones
		{Pattern: `KRAKEN`, Category: "INVERSIONES", Subcategory: "Kraken"},
		{Pattern: `REVOLUT DIGITAL ASSETS`, Category: "INVERSIONES", Subcategory: "Crypto_Revolut"},
	}
}
