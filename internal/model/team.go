package model

// TeamID identifies a team. Derived from the team name at creation and never changed.
type TeamID string

// Team represents a team players belong to
type Team struct {
	ID          TeamID `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// TeamPatch holds optional team updates. Nil fields are left unchanged.
type TeamPatch struct {
	Name        *string `json:"name,omitempty"`
	Color       *string `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply returns t with the patch merged over it
func (tp TeamPatch) Apply(t Team) Team {
	if tp.Name != nil {
		t.Name = *tp.Name
	}
	if tp.Color != nil {
		t.Color = *tp.Color
	}
	if tp.Description != nil {
		t.Description = *tp.Description
	}
	return t
}
