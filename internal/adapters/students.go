// Package adapters registers the table definitions shipped with the
// server. Importing it for side effects makes every adapter available
// through the core registry.
package adapters

import (
	"fmt"

	"github.com/JonMunkholm/RoundTrip/internal/core"
)

// EntityStudent is the entity type for student rows.
const EntityStudent = core.EntityType("student")

func init() {
	registerStudents()
}

func registerStudents() {
	core.Register(core.TableDefinition{
		Name:      "students",
		Entity:    EntityStudent,
		Worksheet: "Students",
		InfoRows: [][]string{
			{"Columns marked with * may be edited and re-imported."},
			{"Put an X in the Delete column to remove a row."},
		},
		Columns: []core.ColumnSpec{
			{Key: core.ColumnID, Column: core.Column{
				Header: "DBID",
			}},
			{Key: "student_number", Column: core.Column{
				Header: "Student Number",
				Extract: func(r core.Row) (any, error) {
					n, ok := r.Get("student_number").(int64)
					if !ok || n == 0 {
						return "", nil
					}
					return fmt.Sprintf("S-%d", n), nil
				},
				Insert: func(st *core.Staging, id core.RowID, v any) error {
					num, err := parseStudentNumber(v)
					if err != nil {
						return err
					}
					st.Add(EntityStudent, id, map[string]any{"student_number": num})
					return nil
				},
			}},
			{Key: "first_name", Column: core.Column{
				Header: "First Name",
				Insert: func(st *core.Staging, id core.RowID, v any) error {
					st.Add(EntityStudent, id, map[string]any{"first_name": v})
					return nil
				},
			}},
			{Key: "last_name", Column: core.Column{
				Header: "Last Name",
				Insert: func(st *core.Staging, id core.RowID, v any) error {
					st.Add(EntityStudent, id, map[string]any{"last_name": v})
					return nil
				},
			}},
			{Key: "join_date", Column: core.Column{
				Header: "Join Date",
			}},
			{Key: "gpa", Column: core.Column{
				Header: "Overall GPA",
				Extract: func(r core.Row) (any, error) {
					switch v := r.Get("gpa").(type) {
					case float64:
						return v, nil
					case nil:
						return nil, nil
					default:
						return nil, fmt.Errorf("gpa has unexpected type %T", v)
					}
				},
			}},
			{Key: "banned", Column: core.Column{
				Header: "Banned",
				Insert: func(st *core.Staging, id core.RowID, v any) error {
					s, _ := v.(string)
					banned, err := core.ParseBool(s)
					if err != nil {
						return err
					}
					st.Add(EntityStudent, id, map[string]any{"banned": banned})
					if banned {
						unenrollOnCommit(st, id)
					}
					return nil
				},
			}},
			{Key: core.ColumnDeleteTag, Column: core.Column{
				Header: "Delete",
				Insert: func(st *core.Staging, id core.RowID, v any) error {
					st.Delete(EntityStudent, id)
					return nil
				},
			}},
		},
	})
}

// parseStudentNumber accepts either the exported "S-123" form or a bare
// number.
func parseStudentNumber(v any) (int64, error) {
	s, _ := v.(string)
	s = core.CleanCell(s)
	if s == "" {
		return 0, nil
	}
	if len(s) > 2 && (s[0] == 'S' || s[0] == 's') && s[1] == '-' {
		s = s[2:]
	}
	id, err := core.ParseRowID(s)
	if err != nil {
		return 0, fmt.Errorf("invalid student number %q", s)
	}
	return int64(id), nil
}

// unenrollOnCommit schedules the unenroll side effect to run just
// before a newly banned student's row is persisted. Guarded with
// HasHook so repeated banned-cell edits within one import register it
// once.
func unenrollOnCommit(st *core.Staging, id core.RowID) {
	if st.HasHook(core.PreUpdate, id) {
		return
	}
	st.AddHook(core.PreUpdate, id, func(data core.HookData, row core.Row) core.HookData {
		row.Set("gpa", 0.0)
		data["unenrolled"] = true
		return data
	})
}
