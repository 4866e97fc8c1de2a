package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopic_Segments(t *testing.T) {
	assert.Equal(t, []string{"cell", "edit", "started"}, Topic("cell.edit.started").Segments())
	assert.Nil(t, Topic("").Segments())
}

func TestTopic_IsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		valid bool
	}{
		{"rows.set", true},
		{"rows", true},
		{"", false},
		{".rows", false},
		{"rows.", false},
		{"rows..set", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.topic.IsValid(), string(tt.topic))
	}
}

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		match   bool
	}{
		{"rows.set", "rows.set", true},
		{"rows.set", "rows.updated", false},
		{"rows.set", "rows.*", true},
		{"cell.edit.started", "cell.*", false},
		{"cell.edit.started", "cell.**", true},
		{"cell", "cell.**", true},
		{"cell.edit.started", "*.edit.*", true},
		{"column.header.clicked", "**.clicked", true},
		{"column.header.clicked", "**", true},
		{"rows.set", "rows.set.extra", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.match, tt.topic.Matches(tt.pattern), "%s ~ %s", tt.topic, tt.pattern)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, Topic("cell.edit.started"), Join("cell", "edit", "started"))
}
