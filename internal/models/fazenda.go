package models

// Fazenda represents a rural parcel record with its boundary geometry.
// Rows come from the CAR (Cadastro Ambiental Rural) extract loaded by the
// bulk loader. All descriptive attributes are nullable, so they use pointers
// to distinguish between zero values and NULL. Date fields are stored as
// YYYY-MM-DD strings (normalized at load time).
type Fazenda struct {
	ID        int64     `json:"id"`
	Geom      *Geometry `json:"-"`
	CodTema   *string   `json:"cod_tema"`
	NomTema   *string   `json:"nom_tema"`
	CodImovel *string   `json:"cod_imovel"`
	ModFiscal *float64  `json:"mod_fiscal"`
	NumArea   *float64  `json:"num_area"`
	IndStatus *string   `json:"ind_status"`
	IndTipo   *string   `json:"ind_tipo"`
	DesCondic *string   `json:"des_condic"`
	Municipio *string   `json:"municipio"`
	CodEstado *string   `json:"cod_estado"`
	DatCriaca *string   `json:"dat_criaca"`
	DatAtuali *string   `json:"dat_atuali"`
}

// TableName is the fazendas table in PostGIS.
const TableName = "fazendas"
