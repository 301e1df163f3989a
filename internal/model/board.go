package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultBoardName is the name given to the board seeded at registration.
const DefaultBoardName = "Mi Tablero Kanban"

type Board struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Columns   Columns   `gorm:"column:columns_data;type:text;not null" json:"columns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

type Task struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Columns is the ordered column list of a board. It is stored as a JSON text
// column; anything that fails to decode reads back as an empty list.
type Columns []Column

// Normalize returns a copy with nil slices replaced by empty ones so the list
// always renders as JSON arrays.
func (c Columns) Normalize() Columns {
	out := make(Columns, len(c))
	for i, col := range c {
		if col.Tasks == nil {
			col.Tasks = []Task{}
		}
		out[i] = col
	}
	return out
}

func (c Columns) Value() (driver.Value, error) {
	payload, err := json.Marshal(c.Normalize())
	if err != nil {
		return nil, fmt.Errorf("marshal columns failed: %w", err)
	}
	return string(payload), nil
}

func (c *Columns) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		*c = Columns{}
		return nil
	}

	var decoded Columns
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded == nil {
		*c = Columns{}
		return nil
	}
	*c = decoded.Normalize()
	return nil
}

// DefaultColumns returns the three columns seeded into a new account's board.
func DefaultColumns() Columns {
	return Columns{
		{
			ID:    "todo",
			Title: "Por hacer",
			Tasks: []Task{{ID: "task-1", Text: "Bienvenido a tu tablero Kanban"}},
		},
		{ID: "in-progress", Title: "En progreso", Tasks: []Task{}},
		{ID: "done", Title: "Hecho", Tasks: []Task{}},
	}
}
