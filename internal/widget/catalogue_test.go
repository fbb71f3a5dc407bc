package widget

import (
	"context"
	"testing"
)

func TestGetWidgetInformation(t *testing.T) {
	c := NewCatalogue()
	for _, key := range Keys() {
		info, err := c.GetWidgetInformation(context.Background(), key)
		if err != nil {
			t.Fatalf("GetWidgetInformation(%q) error = %v", key, err)
		}
		if len(info) == 0 || info[0].Name == "" {
			t.Errorf("GetWidgetInformation(%q) = %v, want a named entry", key, info)
		}
	}

	info, _ := c.GetWidgetInformation(context.Background(), "unknown")
	if len(info) != 0 {
		t.Errorf("GetWidgetInformation(unknown) = %v, want empty", info)
	}
}

func TestGetWidgetInformation_ReturnsCopy(t *testing.T) {
	c := NewCatalogue()
	info, _ := c.GetWidgetInformation(context.Background(), Throughput)
	info[0].Name = "changed"

	again, _ := c.GetWidgetInformation(context.Background(), Throughput)
	if again[0].Name != "Throughput" {
		t.Errorf("catalogue entry was modified to %q", again[0].Name)
	}
}
