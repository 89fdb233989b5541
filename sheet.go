package spreadsheet

import "io"

// Sheet owns the entire Position -> Cell mapping and mediates every edit:
// cycle checks, dependency-edge rewrites, cache invalidation, and the
// printable bounding box. Cross-cell edges are identified by Position,
// never by a pointer the caller could retain across a mutating call — the
// Sheet is the sole authority over the mapping (spec.md §3 "Ownership").
//
// Grounded on original_source/spreadsheet/sheet.cpp for the algorithm
// shape (UpdateSize/RecalculateSize/PrintInternal/HasCircularDependency);
// the teacher's sheet.go contributed the Go-side (value, error) return
// idiom in place of C++ exceptions.
type Sheet struct {
	cells map[Position]*Cell
	size  Size
}

// NewSheet returns an empty sheet.
func NewSheet() *Sheet {
	return &Sheet{cells: make(map[Position]*Cell)}
}

// CellView is the read-only handle external callers receive from GetCell.
// Per spec.md §5 ("Shared-resource policy"), a CellView must not be
// retained across a subsequent mutating call: an edit that deletes the
// underlying cell leaves the handle referring to a detached Cell.
type CellView interface {
	Value() Value
	Text() string
	Referenced() []Position
}

// cellView adapts a *Cell + its owning sheet into the read-only CellView
// surface, so Value() can still recompute a stale cache on demand.
type cellView struct {
	cell  *Cell
	sheet *Sheet
}

func (v cellView) Value() Value          { return v.cell.value(v.sheet) }
func (v cellView) Text() string          { return v.cell.text() }
func (v cellView) Referenced() []Position { return v.cell.Referenced() }

// SetCell parses and installs text at pos. Per spec.md §4.4/§4.6:
//   - "" installs Empty;
//   - an "=..." (length > 1) input is parsed as a formula, cycle-checked,
//     and only then committed;
//   - anything else is a Text body.
//
// A parse failure or a detected cycle raises an error and leaves the sheet
// completely unchanged (spec.md §4.7).
func (s *Sheet) SetCell(pos Position, text string) error {
	if !pos.IsValid() {
		return &InvalidPositionError{Position: pos}
	}

	if text != "" && len(text) > 1 && text[0] == '=' {
		return s.setFormulaCell(pos, text)
	}

	cell := s.getOrCreate(pos)
	s.rewriteEdges(pos, cell.Referenced(), nil)
	if text == "" {
		cell.setEmpty()
	} else {
		cell.setText(text)
	}
	s.invalidateDependents(pos)
	s.touchBoundingBox(pos)
	if s.dropIfDead(pos) {
		s.recalculateBoundingBox()
	}
	return nil
}

// setFormulaCell implements the parse -> cycle-check -> commit pipeline.
// Nothing about the sheet is touched until both the parse and the cycle
// check succeed, per SPEC_FULL.md §5's "atomic edit" grounding.
func (s *Sheet) setFormulaCell(pos Position, text string) error {
	ast, err := ParseFormula(text[1:])
	if err != nil {
		return err
	}
	newRefs := referencedCells(ast)
	for _, r := range newRefs {
		if !r.IsValid() {
			return &FormulaSyntaxError{Source: text, Message: "reference out of range"}
		}
	}
	if s.hasCircularDependency(pos, newRefs) {
		return &CircularDependencyError{At: pos}
	}

	cell := s.getOrCreate(pos)
	oldRefs := cell.Referenced()
	cell.setFormula(ast)
	s.rewriteEdges(pos, oldRefs, newRefs)
	cell.invalidate()
	cell.value(s) // recompute immediately, per spec.md §4.5 step 1
	s.invalidateDependents(pos)
	s.touchBoundingBox(pos)
	return nil
}

// getOrCreate returns the cell at pos, creating an Empty one if absent.
func (s *Sheet) getOrCreate(pos Position) *Cell {
	if c, ok := s.cells[pos]; ok {
		return c
	}
	c := newCell()
	c.setEmpty()
	s.cells[pos] = c
	return c
}

// GetCell returns a read-only view of the cell at pos, or nil if no cell
// exists there. Returns *InvalidPositionError for an out-of-range pos.
func (s *Sheet) GetCell(pos Position) (CellView, error) {
	if !pos.IsValid() {
		return nil, &InvalidPositionError{Position: pos}
	}
	c, ok := s.cells[pos]
	if !ok {
		return nil, nil
	}
	return cellView{cell: c, sheet: s}, nil
}

// ClearCell installs Empty at pos and, if the cell then has no dependents,
// removes the cell object entirely. A pos with no existing cell is a
// silent no-op, matching original_source/spreadsheet/sheet.cpp's
// ClearCell (CheckGetPosition returning false short-circuits the call).
func (s *Sheet) ClearCell(pos Position) error {
	if !pos.IsValid() {
		return &InvalidPositionError{Position: pos}
	}
	cell, ok := s.cells[pos]
	if !ok {
		return nil
	}

	oldRefs := cell.Referenced()
	s.rewriteEdges(pos, oldRefs, nil)
	cell.setEmpty()
	s.invalidateDependents(pos)

	touchedExtent := pos.Row+1 == s.size.Rows || pos.Col+1 == s.size.Cols
	removed := s.dropIfDead(pos)
	if removed && touchedExtent {
		s.recalculateBoundingBox()
	}
	return nil
}

// dropIfDead deletes the cell at pos if it is Empty and unreferenced,
// per spec.md §3's Cell lifecycle rule. Returns whether it was removed.
func (s *Sheet) dropIfDead(pos Position) bool {
	cell, ok := s.cells[pos]
	if !ok {
		return false
	}
	if cell.IsEmpty() && !cell.IsReferenced() {
		delete(s.cells, pos)
		return true
	}
	return false
}

// rewriteEdges atomically moves pos's outgoing edges from oldRefs to
// newRefs: positions dropped from oldRefs lose pos from their dependents
// (and are garbage-collected if left Empty and unreferenced); positions
// newly added to newRefs gain pos in their dependents (creating an Empty
// placeholder cell if none existed), per spec.md §4.5. The bounding box is
// kept covering the cells created or removed here.
func (s *Sheet) rewriteEdges(pos Position, oldRefs, newRefs []Position) {
	newSet := make(map[Position]struct{}, len(newRefs))
	for _, r := range newRefs {
		newSet[r] = struct{}{}
	}
	oldSet := make(map[Position]struct{}, len(oldRefs))
	for _, r := range oldRefs {
		oldSet[r] = struct{}{}
	}

	for _, r := range oldRefs {
		if _, stillNeeded := newSet[r]; stillNeeded {
			continue
		}
		if target, ok := s.cells[r]; ok {
			delete(target.dependents, pos)
			touchedExtent := r.Row+1 == s.size.Rows || r.Col+1 == s.size.Cols
			if s.dropIfDead(r) && touchedExtent {
				s.recalculateBoundingBox()
			}
		}
	}

	for _, r := range newRefs {
		target := s.getOrCreate(r)
		target.dependents[pos] = struct{}{}
		s.touchBoundingBox(r)
	}

	self := s.cells[pos]
	if self != nil {
		self.requires = newSet
	}
}

// invalidateDependents marks every transitive dependent of pos as stale
// and immediately recomputes it, per spec.md §4.5's cache-invalidation
// protocol (the recursion terminates because the requires graph is
// acyclic by invariant).
func (s *Sheet) invalidateDependents(pos Position) {
	cell, ok := s.cells[pos]
	if !ok {
		return
	}
	for dep := range cell.dependents {
		depCell, ok := s.cells[dep]
		if !ok {
			continue
		}
		depCell.invalidate()
		depCell.value(s)
		s.invalidateDependents(dep)
	}
}

// evalRef returns the raw value a Ref node reads at pos: a missing cell
// reads as 0.0, an existing cell yields its memoized value (Empty -> 0.0,
// Text -> the text, Formula -> its number or error). The text-to-number
// coercion of spec.md §4.3 is applied afterwards by refNode.Eval.
func (s *Sheet) evalRef(pos Position) Value {
	cell, ok := s.cells[pos]
	if !ok {
		return NumberValue(0)
	}
	return cell.value(s)
}

// PrintableSize returns the current bounding box, per spec.md §3.
func (s *Sheet) PrintableSize() Size {
	return s.size
}

// touchBoundingBox extends the bounding box to cover pos, an incremental
// max-update on every write (SPEC_FULL.md §6, 4.5).
func (s *Sheet) touchBoundingBox(pos Position) {
	if pos.Row+1 > s.size.Rows {
		s.size.Rows = pos.Row + 1
	}
	if pos.Col+1 > s.size.Cols {
		s.size.Cols = pos.Col + 1
	}
}

// recalculateBoundingBox does a full rescan of every surviving cell, used
// only when a deletion touches the current extent (SPEC_FULL.md §6, 4.5).
func (s *Sheet) recalculateBoundingBox() {
	maxRow, maxCol := -1, -1
	for pos := range s.cells {
		if pos.Row > maxRow {
			maxRow = pos.Row
		}
		if pos.Col > maxCol {
			maxCol = pos.Col
		}
	}
	if len(s.cells) == 0 {
		s.size = Size{}
		return
	}
	s.size = Size{Rows: maxRow + 1, Cols: maxCol + 1}
}

// hasCircularDependency reports whether installing refs as start's
// outgoing edges would create a cycle: a path in the current requires
// graph from any position in refs back to start, including start itself
// appearing in refs as a direct self-cycle. Ported from
// original_source/spreadsheet/sheet.cpp's HasCircularDependency: an
// iterative stack + visited set over the union of the existing graph and
// the prospective new edges.
func (s *Sheet) hasCircularDependency(start Position, refs []Position) bool {
	stack := append([]Position(nil), refs...)
	visited := make(map[Position]struct{})

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == start {
			return true
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		if cell, ok := s.cells[current]; ok {
			for r := range cell.requires {
				stack = append(stack, r)
			}
		}
	}
	return false
}

// PrintValues writes every cell's value in the printable bounding box to
// out, tab-separated within a row and newline-separated between rows. An
// absent cell contributes an empty field, matching
// original_source/spreadsheet/sheet.cpp's PrintInternal exactly.
func (s *Sheet) PrintValues(out io.Writer) error {
	return s.printInternal(out, true)
}

// PrintTexts behaves like PrintValues but emits each cell's Text() instead
// of its Value().
func (s *Sheet) PrintTexts(out io.Writer) error {
	return s.printInternal(out, false)
}

func (s *Sheet) printInternal(out io.Writer, values bool) error {
	size := s.size
	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			if col > 0 {
				if _, err := io.WriteString(out, "\t"); err != nil {
					return err
				}
			}
			cell, ok := s.cells[Position{Row: row, Col: col}]
			if !ok {
				continue
			}
			var field string
			if values {
				field = cell.value(s).Render()
			} else {
				field = cell.text()
			}
			if _, err := io.WriteString(out, field); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(out, "\n"); err != nil {
			return err
		}
	}
	return nil
}
