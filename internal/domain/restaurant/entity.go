package restaurant

// Restaurant is the canonical record the map logic operates on, after
// reconciling the backend's heterogeneous shapes. Nil coordinates mean the
// record cannot be placed on the map.
type Restaurant struct {
	ID        string   `json:"id"`
	Nome      string   `json:"nome"`
	Endereco  string   `json:"endereco"`
	Telefone  string   `json:"telefone"`
	Categoria string   `json:"categoria"`
	Email     string   `json:"email"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}

// MapEligible reports whether the record carries both coordinates. Normalize
// only ever stores finite values, so presence implies finiteness.
func (r Restaurant) MapEligible() bool {
	return r.Lat != nil && r.Lng != nil
}

// Coord is a convenience for building literal records.
func Coord(v float64) *float64 {
	return &v
}
