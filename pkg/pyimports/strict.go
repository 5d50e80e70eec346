package pyimports

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// The grammar still accepts Python 2 constructs that a Python 3 compiler rejects.
var (
	errLegacyStatement  = errors.New("python 2 statement")
	errBacktick         = errors.New("backtick expression")
	errLegacyOperator   = errors.New("python 2 operator")
	errLegacyInteger    = errors.New("invalid integer literal")
	errLegacyExcept     = errors.New("comma in except clause")
	errUnexpectedIndent = errors.New("unexpected indent")
	errDedentMismatch   = errors.New("unindent does not match any outer indentation level")
	errTabMix           = errors.New("inconsistent use of tabs and spaces in indentation")
)

const (
	kindModule         = "module"
	kindBlock          = "block"
	kindComment        = "comment"
	kindPrintStatement = "print_statement"
	kindExecStatement  = "exec_statement"
	kindStringStart    = "string_start"
	kindInteger        = "integer"
	kindExceptClause   = "except_clause"
	kindDecorated      = "decorated_definition"
	kindLegacyNotEqual = "<>"
	kindComma          = ","

	tabSize = 8
)

// clauseKinds begin their own logical line inside a compound statement.
var clauseKinds = map[string]bool{
	"elif_clause":         true,
	"else_clause":         true,
	kindExceptClause:      true,
	"except_group_clause": true,
	"finally_clause":      true,
	"case_clause":         true,
}

// checkPython3 rejects trees that parse cleanly but would not compile under Python 3.
func checkPython3(root sitter.Node, content []byte) error {
	lines := bytes.Split(content, []byte("\n"))
	starts := make(map[uint]bool)

	stack := []sitter.Node{root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := checkNode(current, content); err != nil {
			return fmt.Errorf("%w at line %d", err, current.StartPoint().Row+1)
		}

		if err := markLogicalLines(current, lines, starts); err != nil {
			return err
		}

		for idx := range current.ChildCount() {
			stack = append(stack, current.Child(idx))
		}
	}

	return checkIndentation(lines, starts)
}

func checkNode(n sitter.Node, content []byte) error {
	switch n.Type() {
	case kindPrintStatement, kindExecStatement:
		return errLegacyStatement
	case kindLegacyNotEqual:
		return errLegacyOperator
	case kindStringStart:
		if bytes.HasSuffix(nodeText(n, content), []byte("`")) {
			return errBacktick
		}
	case kindInteger:
		if !validInteger(string(nodeText(n, content))) {
			return errLegacyInteger
		}
	case kindExceptClause:
		for idx := range n.ChildCount() {
			if n.Child(idx).Type() == kindComma {
				return errLegacyExcept
			}
		}
	}

	return nil
}

// validInteger rejects long suffixes and decimal literals with leading zeros such as 0777.
func validInteger(text string) bool {
	if text == "" {
		return true
	}

	switch text[len(text)-1] {
	case 'j', 'J':
		return true
	case 'l', 'L':
		return false
	}

	if len(text) < 2 || text[0] != '0' {
		return true
	}

	if strings.ContainsRune("xXoObB", rune(text[1])) {
		return true
	}

	return strings.Trim(text, "0_") == ""
}

// markLogicalLines records the rows where n's statement children begin a line.
// Top-level statements must start in column zero.
func markLogicalLines(n sitter.Node, lines [][]byte, starts map[uint]bool) error {
	switch n.Type() {
	case kindModule, kindBlock, kindDecorated:
	default:
		if clauseKinds[n.Type()] {
			markRow(n, lines, starts)
		}

		return nil
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() == kindComment || !markRow(child, lines, starts) {
			continue
		}

		if n.Type() == kindModule && child.StartPoint().Column != 0 {
			return fmt.Errorf("%w at line %d", errUnexpectedIndent, child.StartPoint().Row+1)
		}
	}

	return nil
}

// markRow reports whether n is the first token on its line and records that line.
func markRow(n sitter.Node, lines [][]byte, starts map[uint]bool) bool {
	point := n.StartPoint()
	if int(point.Row) >= len(lines) {
		return false
	}

	line := lines[point.Row]
	if len(line)-len(bytes.TrimLeft(line, " \t\f")) != int(point.Column) {
		return false
	}

	starts[point.Row] = true

	return true
}

type indent struct {
	col, alt int
}

// checkIndentation replays the tokenizer's indentation stack over the logical
// line starts, measuring tabs both as eight columns and as one.
func checkIndentation(lines [][]byte, starts map[uint]bool) error {
	stack := []indent{{}}

	for row, line := range lines {
		if !starts[uint(row)] { //nolint:gosec // row indices are non-negative
			continue
		}

		current := measure(line)
		top := stack[len(stack)-1]

		switch {
		case current.col == top.col:
			if current.alt != top.alt {
				return fmt.Errorf("%w at line %d", errTabMix, row+1)
			}
		case current.col > top.col:
			if current.alt <= top.alt {
				return fmt.Errorf("%w at line %d", errTabMix, row+1)
			}

			stack = append(stack, current)
		default:
			for len(stack) > 1 && current.col < stack[len(stack)-1].col {
				stack = stack[:len(stack)-1]
			}

			top = stack[len(stack)-1]
			if current.col != top.col {
				return fmt.Errorf("%w at line %d", errDedentMismatch, row+1)
			}

			if current.alt != top.alt {
				return fmt.Errorf("%w at line %d", errTabMix, row+1)
			}
		}
	}

	return nil
}

func measure(line []byte) indent {
	var level indent

	for _, ch := range line {
		switch ch {
		case ' ':
			level.col++
			level.alt++
		case '\t':
			level.col = (level.col/tabSize + 1) * tabSize
			level.alt++
		case '\f':
			level = indent{}
		default:
			return level
		}
	}

	return level
}
