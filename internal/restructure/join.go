package restructure

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/fulmenhq/navkit/internal/content"
	"github.com/fulmenhq/navkit/pkg/format"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Join reassembles a page document from a split directory: the meta.json
// fields followed by the group files in filename order.
func Join(pageDir string) ([]byte, error) {
	meta, err := content.ReadValid(filepath.Join(pageDir, MetaFile))
	if err != nil {
		return nil, err
	}
	files, err := content.ListJSON(filepath.Join(pageDir, GroupsDir))
	if err != nil {
		return nil, err
	}

	doc := meta
	if doc, err = sjson.SetRawBytes(doc, "groups", []byte(`[]`)); err != nil {
		return nil, err
	}
	for _, f := range files {
		group, err := content.ReadValid(f)
		if err != nil {
			return nil, err
		}
		if doc, err = sjson.SetRawBytes(doc, "groups.-1", group); err != nil {
			return nil, fmt.Errorf("append %s: %w", f, err)
		}
	}
	out, _, err := format.PrettifyJSON(doc, format.Indent)
	return out, err
}

// Verify checks that the split tree in pageDir reproduces src: same name,
// icon and sortOrder, and the same groups in the same order.
func Verify(src, pageDir string) error {
	orig, err := content.ReadValid(src)
	if err != nil {
		return err
	}
	joined, err := Join(pageDir)
	if err != nil {
		return err
	}

	a, b := gjson.ParseBytes(orig), gjson.ParseBytes(joined)
	defaults := map[string]string{"name": `""`, "icon": `""`, "sortOrder": strconv.Itoa(DefaultSortOrder)}
	for _, key := range []string{"name", "icon", "sortOrder"} {
		want := defaults[key]
		if v := a.Get(key); v.Exists() {
			want = v.Raw
		}
		if !sameJSON(want, b.Get(key).Raw) {
			return fmt.Errorf("%s: %s differs after split: %s != %s", pageDir, key, want, b.Get(key).Raw)
		}
	}

	wantGroups, gotGroups := a.Get("groups").Array(), b.Get("groups").Array()
	if len(wantGroups) != len(gotGroups) {
		return fmt.Errorf("%s: %d groups after split, source has %d", pageDir, len(gotGroups), len(wantGroups))
	}
	for i := range wantGroups {
		if !sameJSON(wantGroups[i].Raw, gotGroups[i].Raw) {
			return fmt.Errorf("%s: group %d differs after split", pageDir, i)
		}
	}
	return nil
}

func sameJSON(a, b string) bool {
	ca, _, errA := format.PrettifyJSON([]byte(a), "")
	cb, _, errB := format.PrettifyJSON([]byte(b), "")
	return errA == nil && errB == nil && bytes.Equal(ca, cb)
}
