package importer

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseCSV_NestsBySectionPrefix(t *testing.T) {
	input := `id,section,heading,text,important,dependencies,effort
a,1,Access,,,,
b,1.1,,Users authenticate,80,c;d,3
,1.1.1,,MFA,90,,
c,2,,Backups,40,a|b,
d,1.2,,Sessions,,,
`
	nodes, problems, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if len(nodes) != 2 || nodes[0].ID != "a" || nodes[1].ID != "c" {
		t.Fatalf("unexpected roots: %+v", nodes)
	}

	access := nodes[0]
	if len(access.Children) != 2 || access.Children[0].ID != "b" || access.Children[1].ID != "d" {
		t.Fatalf("unexpected children of 1: %+v", access.Children)
	}
	b := access.Children[0]
	if b.Important != 80 || b.Effort == nil || *b.Effort != 3 {
		t.Fatalf("numeric columns not parsed: %+v", b)
	}
	if !reflect.DeepEqual(b.Dependencies, []string{"c", "d"}) {
		t.Fatalf("dependencies = %v", b.Dependencies)
	}
	if len(b.Children) != 1 || b.Children[0].Section != "1.1.1" || b.Children[0].ID != "" {
		t.Fatalf("grandchild not nested: %+v", b.Children)
	}
	if !reflect.DeepEqual(nodes[1].Dependencies, []string{"a", "b"}) {
		t.Fatalf("pipe-separated dependencies = %v", nodes[1].Dependencies)
	}
}

func TestParseCSV_ChildBeforeParent(t *testing.T) {
	input := "section,text\n1.1,child\n1,parent\n"
	nodes, problems, err := ParseCSV(strings.NewReader(input))
	if err != nil || len(problems) != 0 {
		t.Fatalf("ParseCSV: %v %v", err, problems)
	}
	if len(nodes) != 1 || len(nodes[0].Children) != 1 {
		t.Fatalf("unexpected tree: %+v", nodes)
	}
}

func TestParseCSV_RejectsRows(t *testing.T) {
	input := `section,text,important,effort
1,ok,10,
3.1,orphan,10,
3.1.1,orphan child,10,
2,bad importance,high,
1,duplicate,5,
4,bad effort,5,x
`
	nodes, problems, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Text != "ok" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
	if len(problems) != 5 {
		t.Fatalf("expected 5 problems, got %d: %v", len(problems), problems)
	}

	byPath := make(map[string]string)
	for _, p := range problems {
		byPath[p.Path] = p.Message
	}
	if !strings.Contains(byPath["row 3"], `parent section "3" not found`) {
		t.Errorf("row 3: %q", byPath["row 3"])
	}
	if !strings.Contains(byPath["row 4"], "rejected") {
		t.Errorf("row 4: %q", byPath["row 4"])
	}
	if !strings.Contains(byPath["row 5"], "not an integer") {
		t.Errorf("row 5: %q", byPath["row 5"])
	}
	if !strings.Contains(byPath["row 6"], "duplicate section") {
		t.Errorf("row 6: %q", byPath["row 6"])
	}
}

func TestParseCSV_RequiresSectionColumn(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("id,text\na,b\n"))
	if err == nil {
		t.Fatal("expected an error without a section column")
	}
}

func TestParseCSV_Empty(t *testing.T) {
	nodes, problems, err := ParseCSV(strings.NewReader(""))
	if err != nil || len(nodes) != 0 || len(problems) != 0 {
		t.Fatalf("empty input = %v %v %v", nodes, problems, err)
	}
}
