package straditizer

import (
	"fmt"
	"image"
	"sort"
	"strconv"
	"strings"

	"github.com/stratidigit/straditize/internal/axis"
	"github.com/stratidigit/straditize/internal/column"
	"github.com/stratidigit/straditize/internal/dataset"
	"github.com/stratidigit/straditize/internal/frame"
	"github.com/stratidigit/straditize/internal/imageproc"
	"github.com/stratidigit/straditize/internal/occurrence"
	"github.com/stratidigit/straditize/internal/reader"
)

// ToDataset serializes the full straditizer state — the source image, the
// data box, every reader in the tree (kind, binary crop, column ownership,
// exaggeration factor), column geometry, the y-axis translation,
// occurrences, and the digitized/sample state — into a dataset.Bundle
// (C12).
func (s *Straditizer) ToDataset() *dataset.Bundle {
	b := dataset.NewBundle()
	for k, v := range s.Attrs {
		b.Attrs["attr."+k] = v
	}
	b.Attrs["session_id"] = s.SessionID

	if s.Image != nil {
		b.Attrs["image.width"] = strconv.Itoa(s.Image.Width)
		b.Attrs["image.height"] = strconv.Itoa(s.Image.Height)
		dataset.PutUint8s(b, "image.rgba", []int{s.Image.Height, s.Image.Width, 4}, s.Image.Pix.Pix)
	}
	b.Attrs["data_lims.x0"] = strconv.Itoa(s.Box.X0)
	b.Attrs["data_lims.x1"] = strconv.Itoa(s.Box.X1)
	b.Attrs["data_lims.y0"] = strconv.Itoa(s.Box.Y0)
	b.Attrs["data_lims.y1"] = strconv.Itoa(s.Box.Y1)

	if px0, px1, d0, d1, ok := s.YAxis.Anchors(); ok {
		b.Attrs["yaxis_translation.set"] = "true"
		dataset.PutFloat64s(b, "yaxis_translation", []int{4}, []float64{px0, px1, d0, d1})
	} else {
		b.Attrs["yaxis_translation.set"] = "false"
	}

	if s.Tree == nil {
		return b
	}
	t := s.Tree
	b.Attrs["tree.rows"] = strconv.Itoa(t.Rows)
	b.Attrs["tree.cols"] = strconv.Itoa(t.Cols)
	b.Attrs["tree.root_id"] = strconv.Itoa(t.RootID)

	putInts(b, "column_starts", t.ColumnStarts)
	putInts(b, "column_ends", t.ColumnEnds)
	putInts(b, "hline", t.HlineLocs)
	putInts(b, "vline", t.VlineLocs)
	putInts(b, "sample_locs", t.SampleLocs)
	dataset.PutFloat64s(b, "shifted", []int{len(t.ColumnShift)}, t.ColumnShift)

	boundStarts := make([]int32, len(t.Bounds))
	boundEnds := make([]int32, len(t.Bounds))
	for i, bd := range t.Bounds {
		boundStarts[i], boundEnds[i] = int32(bd.Start), int32(bd.End)
	}
	dataset.PutInt32s(b, "col_bounds.start", []int{len(boundStarts)}, boundStarts)
	dataset.PutInt32s(b, "col_bounds.end", []int{len(boundEnds)}, boundEnds)

	colMap := make([]int32, len(t.Bounds))
	for _, n := range t.Nodes {
		for _, c := range n.Columns {
			colMap[c] = int32(n.ID)
		}
	}
	dataset.PutInt32s(b, "col_map", []int{len(colMap)}, colMap)

	var ids []string
	for _, n := range t.Nodes {
		ids = append(ids, strconv.Itoa(n.ID))
		prefix := fmt.Sprintf("reader.%d.", n.ID)
		b.Attrs[prefix+"parent_id"] = strconv.Itoa(n.ParentID)
		b.Attrs[prefix+"reader_cls"] = strconv.Itoa(int(n.Kind))
		b.Attrs[prefix+"is_exaggerated"] = strconv.FormatFloat(n.IsExaggerated, 'g', -1, 64)

		cols := make([]int32, len(n.Columns))
		for i, c := range n.Columns {
			cols[i] = int32(c)
		}
		dataset.PutInt32s(b, prefix+"columns", []int{len(cols)}, cols)
		dataset.PutUint8s(b, prefix+"binary", []int{t.Rows, t.Cols}, n.Binary)

		if occ, ok := t.Occurrences[n.ID]; ok {
			pts := occ.Points()
			xs := make([]int32, len(pts))
			ys := make([]int32, len(pts))
			for i, p := range pts {
				xs[i], ys[i] = int32(p.X), int32(p.Y)
			}
			dataset.PutInt32s(b, prefix+"occurrences.x", []int{len(xs)}, xs)
			dataset.PutInt32s(b, prefix+"occurrences.y", []int{len(ys)}, ys)
		}
	}
	b.Attrs["reader_ids"] = strings.Join(ids, ",")

	if t.FullDF != nil {
		for col := 0; col < t.FullDF.Cols; col++ {
			dataset.PutFloat64s(b, fmt.Sprintf("full_df_%d", col), []int{t.FullDF.Rows}, t.FullDF.Values[col])
		}
	}
	return b
}

// FromDataset reconstructs a Straditizer from a bundle written by
// ToDataset: the source image, data box, full reader tree, column
// geometry, the y-axis translation, occurrences, and digitized state.
func FromDataset(b *dataset.Bundle) (*Straditizer, error) {
	s := &Straditizer{
		SessionID: b.Attrs["session_id"],
		Attrs:     map[string]string{},
		DoneTasks: map[string]bool{},
	}
	for k, v := range b.Attrs {
		if name, ok := strings.CutPrefix(k, "attr."); ok {
			s.Attrs[name] = v
		}
	}

	if wStr, ok := b.Attrs["image.width"]; ok {
		w, err := strconv.Atoi(wStr)
		if err != nil {
			return nil, fmt.Errorf("dataset: bad image.width: %w", err)
		}
		h, err := strconv.Atoi(b.Attrs["image.height"])
		if err != nil {
			return nil, fmt.Errorf("dataset: bad image.height: %w", err)
		}
		pix, ok := dataset.GetUint8s(b, "image.rgba")
		if !ok {
			return nil, fmt.Errorf("dataset: missing image.rgba array")
		}
		s.Image = &imageproc.Image{
			Pix:    &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)},
			Width:  w, Height: h,
		}
	}

	box, err := atoiBox(b.Attrs)
	if err != nil {
		return nil, err
	}
	s.Box = box

	if b.Attrs["yaxis_translation.set"] == "true" {
		anchors, ok := dataset.GetFloat64s(b, "yaxis_translation")
		if !ok || len(anchors) != 4 {
			return nil, fmt.Errorf("dataset: malformed yaxis_translation array")
		}
		s.YAxis = axis.NewYAxis([2]float64{anchors[0], anchors[1]}, [2]float64{anchors[2], anchors[3]})
	}

	idsStr, ok := b.Attrs["reader_ids"]
	if !ok {
		return s, nil
	}
	rows, err := strconv.Atoi(b.Attrs["tree.rows"])
	if err != nil {
		return nil, fmt.Errorf("dataset: bad tree.rows: %w", err)
	}
	cols, err := strconv.Atoi(b.Attrs["tree.cols"])
	if err != nil {
		return nil, fmt.Errorf("dataset: bad tree.cols: %w", err)
	}
	rootID, err := strconv.Atoi(b.Attrs["tree.root_id"])
	if err != nil {
		return nil, fmt.Errorf("dataset: bad tree.root_id: %w", err)
	}

	boundStarts, _ := dataset.GetInt32s(b, "col_bounds.start")
	boundEnds, _ := dataset.GetInt32s(b, "col_bounds.end")
	bounds := make([]column.Bounds, len(boundStarts))
	for i := range bounds {
		bounds[i] = column.Bounds{Start: int(boundStarts[i]), End: int(boundEnds[i])}
	}

	t := &reader.Tree{
		Rows: rows, Cols: cols, Bounds: bounds, RootID: rootID,
		Occurrences: map[int]*occurrence.Set{},
	}

	for _, idStr := range strings.Split(idsStr, ",") {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("dataset: bad reader id %q: %w", idStr, err)
		}
		prefix := fmt.Sprintf("reader.%d.", id)
		parentID, err := strconv.Atoi(b.Attrs[prefix+"parent_id"])
		if err != nil {
			return nil, fmt.Errorf("dataset: bad %sparent_id: %w", prefix, err)
		}
		kindInt, err := strconv.Atoi(b.Attrs[prefix+"reader_cls"])
		if err != nil {
			return nil, fmt.Errorf("dataset: bad %sreader_cls: %w", prefix, err)
		}
		isExagg, err := strconv.ParseFloat(b.Attrs[prefix+"is_exaggerated"], 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: bad %sis_exaggerated: %w", prefix, err)
		}
		colsArr, _ := dataset.GetInt32s(b, prefix+"columns")
		nodeCols := make([]int, len(colsArr))
		for i, c := range colsArr {
			nodeCols[i] = int(c)
		}
		binaryArr, ok := dataset.GetUint8s(b, prefix+"binary")
		if !ok {
			return nil, fmt.Errorf("dataset: missing %sbinary array", prefix)
		}
		t.Nodes = append(t.Nodes, &reader.Node{
			ID: id, ParentID: parentID, Columns: nodeCols,
			IsExaggerated: isExagg, Kind: reader.Kind(kindInt), Binary: binaryArr,
		})
		occ := occurrence.NewSet()
		xs, _ := dataset.GetInt32s(b, prefix+"occurrences.x")
		ys, _ := dataset.GetInt32s(b, prefix+"occurrences.y")
		for i := range xs {
			occ.Add(occurrence.Point{X: int(xs[i]), Y: int(ys[i])})
		}
		t.Occurrences[id] = occ
	}
	sort.Slice(t.Nodes, func(i, j int) bool { return t.Nodes[i].ID < t.Nodes[j].ID })
	t.RecomputeNextID()

	t.ColumnStarts = getInts(b, "column_starts")
	t.ColumnEnds = getInts(b, "column_ends")
	t.HlineLocs = getInts(b, "hline")
	t.VlineLocs = getInts(b, "vline")
	t.SampleLocs = getInts(b, "sample_locs")
	if shift, ok := dataset.GetFloat64s(b, "shifted"); ok {
		t.ColumnShift = shift
	}

	nCols := len(bounds)
	fullDF := frame.New(rows, nCols)
	for col := 0; col < nCols; col++ {
		if vals, ok := dataset.GetFloat64s(b, fmt.Sprintf("full_df_%d", col)); ok {
			fullDF.Values[col] = vals
		}
	}
	t.FullDF = fullDF
	s.Tree = t
	return s, nil
}

func atoiBox(attrs map[string]string) (DataBox, error) {
	vals := make([]int, 4)
	keys := []string{"data_lims.x0", "data_lims.x1", "data_lims.y0", "data_lims.y1"}
	for i, k := range keys {
		v, err := strconv.Atoi(attrs[k])
		if err != nil {
			return DataBox{}, fmt.Errorf("dataset: bad %s: %w", k, err)
		}
		vals[i] = v
	}
	return DataBox{X0: vals[0], X1: vals[1], Y0: vals[2], Y1: vals[3]}, nil
}

func putInts(b *dataset.Bundle, name string, vals []int) {
	arr := make([]int32, len(vals))
	for i, v := range vals {
		arr[i] = int32(v)
	}
	dataset.PutInt32s(b, name, []int{len(arr)}, arr)
}

func getInts(b *dataset.Bundle, name string) []int {
	arr, ok := dataset.GetInt32s(b, name)
	if !ok {
		return nil
	}
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}
