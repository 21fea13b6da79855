package extraction

import "encoding/json"

// Connection is an edge between two entries, identified by table and title.
//
// Endpoints match entries by title string equality, not by row id — a known
// limitation carried from the extraction pass that produces them: duplicate
// or renamed titles break the link. The entry_connections table keeps
// nullable id columns so a later resolution pass can bind titles to rows
// without a schema change.
type Connection struct {
	Entry1Table    string `json:"entry_1_table"`
	Entry1Title    string `json:"entry_1_title"`
	Entry2Table    string `json:"entry_2_table"`
	Entry2Title    string `json:"entry_2_title"`
	ConnectionType string `json:"connection_type"`
	Description    string `json:"description"`
}

// connectionWire accepts both the entry_1_title and entry1_title spellings,
// and relationship_type as an alias for connection_type. The extraction
// collaborator has produced all of these at one time or another.
type connectionWire struct {
	Entry1Table      string `json:"entry_1_table"`
	Entry1TableAlt   string `json:"entry1_table"`
	Entry1Title      string `json:"entry_1_title"`
	Entry1TitleAlt   string `json:"entry1_title"`
	Entry2Table      string `json:"entry_2_table"`
	Entry2TableAlt   string `json:"entry2_table"`
	Entry2Title      string `json:"entry_2_title"`
	Entry2TitleAlt   string `json:"entry2_title"`
	ConnectionType   string `json:"connection_type"`
	RelationshipType string `json:"relationship_type"`
	Description      string `json:"description"`
}

func (c *Connection) UnmarshalJSON(data []byte) error {
	var w connectionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	c.Entry1Table = firstOf(w.Entry1Table, w.Entry1TableAlt)
	c.Entry1Title = firstOf(w.Entry1Title, w.Entry1TitleAlt)
	c.Entry2Table = firstOf(w.Entry2Table, w.Entry2TableAlt)
	c.Entry2Title = firstOf(w.Entry2Title, w.Entry2TitleAlt)
	c.ConnectionType = firstOf(w.ConnectionType, w.RelationshipType)
	c.Description = w.Description
	return nil
}

// Valid reports whether both endpoint titles are present.
func (c Connection) Valid() bool {
	return c.Entry1Title != "" && c.Entry2Title != ""
}

func firstOf(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
