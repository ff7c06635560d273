package model

import (
	"encoding/json"
	"errors"

	"github.com/burugo/thing"
)

// Workspace is a named ordered grouping of a user's services. Members are
// stored as a JSON array of external service ids in the Services column.
type Workspace struct {
	thing.BaseModel
	UserID      int64  `db:"user_id" json:"userId"`
	WorkspaceID string `db:"workspace_id,unique" json:"id"`
	Name        string `db:"name" json:"name"`
	OrderNum    int    `db:"order_num" json:"order"`
	Services    string `db:"services" json:"-"`
	Data        string `db:"data" json:"-"`
}

func (w *Workspace) TableName() string {
	return "workspaces"
}

var WorkspaceDB *thing.Thing[*Workspace]

func WorkspaceInit() error {
	var err error
	WorkspaceDB, err = thing.Use[*Workspace]()
	return err
}

func WorkspaceIDTaken(id string) (bool, error) {
	workspaces, err := WorkspaceDB.Where("workspace_id = ?", id).Fetch(0, 1)
	if err != nil {
		return false, err
	}
	return len(workspaces) > 0, nil
}

func GetWorkspacesByUserID(userID int64) ([]*Workspace, error) {
	return WorkspaceDB.Where("user_id = ?", userID).Order("order_num ASC").All()
}

func GetWorkspaceForUser(userID int64, workspaceID string) (*Workspace, error) {
	workspaces, err := WorkspaceDB.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).Fetch(0, 1)
	if err != nil {
		return nil, err
	}
	if len(workspaces) == 0 {
		return nil, errors.New("workspace not found")
	}
	return workspaces[0], nil
}

// NextWorkspaceOrder assigns the ordinal for a new workspace as one past the
// user's current highest, so deleting a workspace in the middle can never
// hand out a duplicate position.
func NextWorkspaceOrder(userID int64) (int, error) {
	workspaces, err := WorkspaceDB.Where("user_id = ?", userID).Order("order_num DESC").Fetch(0, 1)
	if err != nil {
		return 0, err
	}
	if len(workspaces) == 0 {
		return 0, nil
	}
	return workspaces[0].OrderNum + 1, nil
}

func (w *Workspace) Insert() error {
	return WorkspaceDB.Save(w)
}

func (w *Workspace) Update() error {
	return WorkspaceDB.Save(w)
}

func (w *Workspace) Delete() error {
	return WorkspaceDB.Delete(w)
}

// ServiceIDs decodes the member list, tolerating the blob quirks described
// in settings.go. Null entries written by older servers are skipped.
func (w *Workspace) ServiceIDs() []string {
	if w.Services == "" {
		return []string{}
	}
	var raw []any
	if err := json.Unmarshal([]byte(w.Services), &raw); err != nil {
		var inner string
		if err := json.Unmarshal([]byte(w.Services), &inner); err != nil {
			return []string{}
		}
		if err := json.Unmarshal([]byte(inner), &raw); err != nil {
			return []string{}
		}
	}
	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		if id, ok := entry.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (w *Workspace) SetServiceIDs(ids []string) {
	data, err := json.Marshal(ids)
	if err != nil {
		w.Services = "[]"
		return
	}
	w.Services = string(data)
}

// WorkspaceRender is the outbound workspace shape.
type WorkspaceRender struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Order    int      `json:"order"`
	Services []string `json:"services"`
	UserID   int64    `json:"userId"`
}

func (w *Workspace) Render() WorkspaceRender {
	return WorkspaceRender{
		ID:       w.WorkspaceID,
		Name:     w.Name,
		Order:    w.OrderNum,
		Services: w.ServiceIDs(),
		UserID:   w.UserID,
	}
}
