package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDocumentJSONRoundTrip(t *testing.T) {
	d := Document{
		ID: "doc1",
		Pages: []Page{
			{ID: "p1", Title: "Cover", Blocks: []Block{
				{ID: "a", Type: BlockImage, Position: Point{X: 10, Y: 10}, Size: &Size{Width: 50, Height: 50}, Crop: &Crop{Left: 5}, GroupID: "grp_1"},
				{ID: "t", Type: BlockText, Position: Point{X: 1, Y: 2}, Text: &TextProps{Content: "hi", FontSize: 16}},
			}},
		},
		ActivePageID: "p1",
		Groups: []Group{{ID: "grp_1", ChildIDs: []string{"a"}, BlockOffsets: map[string]Point{"a": {}}}},
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Document
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ActivePageID != "p1" || len(got.Pages) != 1 || len(got.Groups) != 1 {
		t.Fatalf("unexpected document structure: %+v", got)
	}
	if got.Pages[0].Blocks[1].Size != nil {
		t.Fatalf("auto-sized text block should keep a nil size")
	}
	if !strings.Contains(string(b), `"activePageId":"p1"`) {
		t.Fatalf("expected camelCase activePageId in %s", b)
	}
}

func TestBlockCloneIsDeep(t *testing.T) {
	b := Block{ID: "a", Size: &Size{Width: 1, Height: 2}, Crop: &Crop{Top: 3}, Text: &TextProps{FontSize: 12}, Palette: []string{"#fff"}}
	c := b.Clone()
	b.Size.Width = 99
	b.Crop.Top = 99
	b.Text.FontSize = 99
	b.Palette[0] = "#000"
	if c.Size.Width != 1 || c.Crop.Top != 3 || c.Text.FontSize != 12 || c.Palette[0] != "#fff" {
		t.Fatalf("clone shares state with original: %+v", c)
	}
}

func TestGroupCloneAndSameGeometry(t *testing.T) {
	g := Group{ID: "g", ChildIDs: []string{"a", "b"}, BlockOffsets: map[string]Point{"a": {}, "b": {X: 30}}}
	c := g.Clone()
	if !g.SameGeometry(c) {
		t.Fatalf("clone should have the same geometry")
	}
	g.BlockOffsets["b"] = Point{X: 31}
	g.ChildIDs[0] = "z"
	if c.BlockOffsets["b"].X != 30 || c.ChildIDs[0] != "a" {
		t.Fatalf("clone shares maps or slices with original")
	}
	if g.SameGeometry(c) {
		t.Fatalf("changed offset must break geometry equality")
	}
}

func TestNewIDsAreDisjoint(t *testing.T) {
	b := NewBlockID()
	g := NewGroupID()
	if b == "" || g == "" || b == g {
		t.Fatalf("unexpected ids %q %q", b, g)
	}
	if strings.HasPrefix(b, GroupIDPrefix) || !strings.HasPrefix(g, GroupIDPrefix) {
		t.Fatalf("id spaces overlap: block=%q group=%q", b, g)
	}
}
