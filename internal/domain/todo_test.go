package domain

import (
	"encoding/json"
	"testing"
)

func TestTodoJSON(t *testing.T) {
	t.Run("encodes wire format", func(t *testing.T) {
		data, err := json.Marshal(Todo{Description: "buy milk", Completed: false})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"description":"buy milk","completed":false}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("re-encoding a stored record is stable", func(t *testing.T) {
		stored := `{"description":"a \"quoted\" <b>","completed":true}`
		var todo Todo
		if err := json.Unmarshal([]byte(stored), &todo); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := json.Marshal(todo)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var again Todo
		if err := json.Unmarshal(data, &again); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != todo {
			t.Errorf("expected %+v, got %+v", todo, again)
		}
	})

	t.Run("indexed todo flattens fields", func(t *testing.T) {
		data, err := json.Marshal(IndexedTodo{Index: 2, Todo: Todo{Description: "x"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"index":2,"description":"x","completed":false}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})
}

func TestTodoDecodeIsStrict(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"complete record", `{"description":"a","completed":true}`, false},
		{"empty description", `{"description":"","completed":false}`, false},
		{"null", `null`, true},
		{"padded null", ` null `, true},
		{"empty object", `{}`, true},
		{"unknown field only", `{"foo":1}`, true},
		{"missing completed", `{"description":"a"}`, true},
		{"missing description", `{"completed":false}`, true},
		{"null description", `{"description":null,"completed":false}`, true},
		{"extra field", `{"description":"a","completed":false,"id":1}`, true},
		{"array", `[]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var todo Todo
			err := json.Unmarshal([]byte(tt.input), &todo)
			if (err != nil) != tt.wantErr {
				t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestIndexedTodoDecode(t *testing.T) {
	var it IndexedTodo
	if err := json.Unmarshal([]byte(`{"index":2,"description":"x","completed":true}`), &it); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := IndexedTodo{Index: 2, Todo: Todo{Description: "x", Completed: true}}
	if it != want {
		t.Errorf("expected %+v, got %+v", want, it)
	}

	if err := json.Unmarshal([]byte(`{"description":"x","completed":true}`), &it); err == nil {
		t.Error("expected an error for a missing index")
	}
}

func TestToggled(t *testing.T) {
	todo := NewTodo("a")
	toggled := todo.Toggled()

	if todo.Completed {
		t.Error("Toggled should not modify the receiver")
	}
	if !toggled.Completed {
		t.Error("expected toggled todo to be completed")
	}
	if toggled.Toggled().Completed {
		t.Error("expected double toggle to reopen the todo")
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input   string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"Active", FilterActive, false},
		{" completed ", FilterCompleted, false},
		{"done", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFilter(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestFilterApply(t *testing.T) {
	todos := Index([]Todo{
		{Description: "a", Completed: false},
		{Description: "b", Completed: true},
		{Description: "c", Completed: false},
	})

	tests := []struct {
		filter  Filter
		indexes []int64
	}{
		{FilterAll, []int64{0, 1, 2}},
		{FilterActive, []int64{0, 2}},
		{FilterCompleted, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := tt.filter.Apply(todos)
			if len(got) != len(tt.indexes) {
				t.Fatalf("expected %d todos, got %d", len(tt.indexes), len(got))
			}
			for i, todo := range got {
				if todo.Index != tt.indexes[i] {
					t.Errorf("todo %d: expected index %d, got %d", i, tt.indexes[i], todo.Index)
				}
			}
		})
	}
}

func TestCountActive(t *testing.T) {
	todos := []Todo{{Completed: true}, {}, {}}
	if got := CountActive(todos); got != 2 {
		t.Errorf("CountActive = %d, want 2", got)
	}
	if got := CountActive(nil); got != 0 {
		t.Errorf("CountActive(nil) = %d, want 0", got)
	}
}
