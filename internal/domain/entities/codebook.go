package entities

// CodebookCode is a single category label with its working definition.
type CodebookCode struct {
	Name       string `json:"name" validate:"required"`
	Definition string `json:"definition"`
}

// Codebook is the fixed set of category labels available for deductive coding.
type Codebook struct {
	Ref   string         `json:"ref"`
	Codes []CodebookCode `json:"codes"`
}

// CodeNames returns the label names in codebook order.
func (c *Codebook) CodeNames() []string {
	names := make([]string, 0, len(c.Codes))
	for _, code := range c.Codes {
		names = append(names, code.Name)
	}
	return names
}

// Contains reports whether the codebook defines the given label.
func (c *Codebook) Contains(name string) bool {
	for _, code := range c.Codes {
		if code.Name == name {
			return true
		}
	}
	return false
}
