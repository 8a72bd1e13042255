package treesitter

// #include "bindings.h"
import "C"

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"
	"unsafe"
)

// Parse is a shortcut for parsing bytes of source code,
// returns root node
func Parse(ctx context.Context, content []byte, lang string) (Node, error) {
	p := NewParser(lang)
	tree, err := p.Parse(ctx, nil, content)
	if err != nil {
		return Node{}, err
	}

	return tree.RootNode(), nil
}

// Parser produces concrete syntax tree based on source code using Language
type Parser struct {
	c      *C.TSParser
	cancel *uintptr
	lang   *Language
}

// NewParser creates new Parser.
func NewParser(language string) *Parser {
	lang := languages[language]
	if lang == nil {
		panic(fmt.Sprintf("language %s not found; missing import _ statement", language))
	}
	cancel := uintptr(0)
	p := &Parser{c: C.ts_parser_new(), cancel: &cancel, lang: lang}
	C.ts_parser_set_cancellation_flag(p.c, (*C.size_t)(unsafe.Pointer(p.cancel)))
	C.ts_parser_set_language(p.c, (*C.struct_TSLanguage)(lang.ptr))
	runtime.SetFinalizer(p, (*Parser).Close)
	return p
}

var (
	ErrOperationLimit = errors.New("operation limit was hit")
	ErrNoLanguage     = errors.New("cannot parse without language")
)

// Parse produces new Tree from content using old tree
func (p *Parser) Parse(ctx context.Context, oldTree *Tree, content []byte) (*Tree, error) {
	var cTree *C.TSTree
	if oldTree != nil {
		cTree = oldTree.c
	}

	parseComplete := make(chan struct{})

	// run goroutine only if context is cancelable to avoid performance impact
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				atomic.StoreUintptr(p.cancel, 1)
			case <-parseComplete:
				return
			}
		}()
	}

	input := C.CBytes(content)
	cTree = C.ts_parser_parse_string(p.c, cTree, (*C.char)(input), C.uint32_t(len(content)))
	close(parseComplete)
	C.free(input)

	return p.convertTSTree(ctx, cTree)
}

// convertTSTree converts the tree-sitter response into a *Tree or an error.
//
// tree-sitter can fail for 3 reasons:
// - cancelation
// - operation limit hit
// - no language set
//
// We check for all those conditions if ther return value is nil.
// see: https://github.com/tree-sitter/tree-sitter/blob/7890a29db0b186b7b21a0a95d99fa6c562b8316b/lib/include/tree_sitter/api.h#L209-L246
func (p *Parser) convertTSTree(ctx context.Context, tsTree *C.TSTree) (*Tree, error) {
	if tsTree == nil {
		if ctx.Err() != nil {
			// reset cancellation flag so the parse can be re-used
			atomic.StoreUintptr(p.cancel, 0)
			// context cancellation caused a timeout, return that error
			return nil, ctx.Err()
		}

		if C.ts_parser_language(p.c) == nil {
			return nil, ErrNoLanguage
		}

		return nil, ErrOperationLimit
	}

	return p.newTree(tsTree), nil
}

// Close should be called to ensure that all the memory used by the parse is freed.
//
// As the constructor in go-tree-sitter would set this func call through runtime.SetFinalizer,
// parser.Close() will be called by Go's garbage collector and users would not have to call this manually.
func (p *Parser) Close() {
	if p.c != nil {
		C.ts_parser_delete(p.c)
		p.c = nil
	}
}

// we use cache for nodes on normal tree object
// it prevent run of SetFinalizer as it introduces cycle
// we can workaround it using separate object
// for details see: https://github.com/golang/go/issues/7358#issuecomment-66091558
type baseTree struct {
	c *C.TSTree
}

// newTree creates a new tree object from a C pointer. The function will set a finalizer for the object,
// thus no free is needed for it.
func (p *Parser) newTree(c *C.TSTree) *Tree {
	base := &baseTree{c: c}
	runtime.SetFinalizer(base, (*baseTree).Close)

	newTree := &Tree{p: p, baseTree: base}
	return newTree
}

// Tree represents the syntax tree of an entire source code file
// Note: Tree instances are not thread safe, and this package has no
// method for copying one.
type Tree struct {
	*baseTree

	// p is a pointer to a Parser that produced the Tree. Only used to keep Parser alive.
	// Otherwise Parser may be GC'ed (and deleted by the finalizer) while some Tree objects are still in use.
	p *Parser
}

// RootNode returns root node of a tree
func (t *Tree) RootNode() Node {
	n := C.ts_tree_root_node(t.c)
	return Node{c: (C.TSNode)(n), t: t}
}

func (t *Tree) goString(ptr *C.char) string {
	return t.p.lang.goString(ptr)
}

// Close should be called to ensure that all the memory used by the tree is freed.
//
// As the constructor in go-tree-sitter would set this func call through runtime.SetFinalizer,
// Close will be called by Go's garbage collector and users would not have to call this manually.
func (t *baseTree) Close() {
	if t.c != nil {
		C.ts_tree_delete(t.c)
		t.c = nil
	}
}

var languages = map[string]*Language{}

// RegisterLanguage registers a language with the parser.
// It is called on init from packages that contain a language parser. E.g.
//
//	import _ "github.com/jubnzv-go/godd/lua"
//
// calls RegisterLanguage("lua", l) allowing lua to be used as a language.
func RegisterLanguage(langName string, l *Language) {
	if languages[langName] != nil {
		panic("language " + langName + " already registered")
	}
	languages[langName] = l
}

// Language defines how to parse a particular programming language
type Language struct {
	ptr      unsafe.Pointer
	cstrings map[*C.char]string // unchanged after NewLanguage
}

// NewLanguage creates new Language from c pointer
func NewLanguage(ptr unsafe.Pointer) *Language {
	l := &Language{ptr: ptr, cstrings: make(map[*C.char]string)}
	// load up cstrings so node type lookups (Node.Type) don't pay for a
	// C string conversion on every call
	for i := 0; i < l.SymbolCount(); i++ {
		ptr := l.cSymbolName(Symbol(i))
		l.cstrings[ptr] = C.GoString(ptr)
	}
	return l
}

func (l *Language) goString(ptr *C.char) string {
	if s, found := l.cstrings[ptr]; found {
		return s
	}
	return C.GoString(ptr)
}

func (l *Language) cSymbolName(s Symbol) *C.char {
	return C.ts_language_symbol_name((*C.TSLanguage)(l.ptr), s)
}

// SymbolCount returns the number of distinct symbols in the language.
func (l *Language) SymbolCount() int {
	return int(C.ts_language_symbol_count((*C.TSLanguage)(l.ptr)))
}

// Node represents a single node in the syntax tree.
//
// It tracks its start and end byte offsets in the source code, and its
// relation to its parent and named children.
type Node struct {
	c C.TSNode
	t *Tree
}

// StartByte returns the node's start byte.
func (n Node) StartByte() int {
	return int(C.ts_node_start_byte(n.c))
}

// EndByte returns the node's end byte.
func (n Node) EndByte() int {
	return int(C.ts_node_end_byte(n.c))
}

// Symbol returns the node's type as a Symbol.
func (n Node) Symbol() Symbol {
	return C.ts_node_symbol(n.c)
}

// Type returns the node's type as a string.
func (n Node) Type() string {
	return n.t.goString(C.ts_node_type(n.c))
}

// IsError checks if the node is a syntax error.
// Syntax errors represent parts of the code that could not be incorporated into a valid syntax tree.
func (n Node) IsError() bool {
	return n.Symbol() == math.MaxUint16
}

// HasError check if the node is a syntax error or contains any syntax errors.
func (n Node) HasError() bool {
	defer runtime.KeepAlive(n.t)
	return bool(C.ts_node_has_error(n.c))
}

// NamedChild returns the node's *named* child at the given index.
func (n Node) NamedChild(idx int) Node {
	nn := C.ts_node_named_child(n.c, C.uint32_t(idx))
	return Node{c: (C.TSNode)(nn), t: n.t}
}

// NamedChildCount returns the node's number of *named* children.
func (n Node) NamedChildCount() int {
	defer runtime.KeepAlive(n.t)
	return int(C.ts_node_named_child_count(n.c))
}

// NamedChildren returns an iterator over n's named children.
func (n Node) NamedChildren() iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		for i := range n.NamedChildCount() {
			if !yield(i, n.NamedChild(i)) {
				return
			}
		}
	}
}

type Symbol = C.TSSymbol

// QueryErrorType - value that indicates the type of QueryError.
type QueryErrorType int

const (
	QueryErrorNone QueryErrorType = iota
	QueryErrorSyntax
	QueryErrorNodeType
	QueryErrorField
	QueryErrorCapture
	QueryErrorStructure
	QueryErrorLanguage
)

func QueryErrorTypeToString(errorType QueryErrorType) string {
	switch errorType {
	case QueryErrorNone:
		return "none"
	case QueryErrorNodeType:
		return "node type"
	case QueryErrorField:
		return "field"
	case QueryErrorCapture:
		return "capture"
	case QueryErrorSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// QueryError - if there is an error in the query,
// then the Offset argument will be set to the byte offset of the error,
// and the Type argument will be set to a value that indicates the type of error.
type QueryError struct {
	Offset  uint32
	Type    QueryErrorType
	Message string
}

func (qe *QueryError) Error() string {
	return qe.Message
}

// Query API
type Query struct {
	c *C.TSQuery
}

// NewQuery creates a query by specifying a string containing one or more patterns.
// In case of error returns QueryError.
func NewQuery(pattern []byte, language string) (*Query, error) {
	var (
		erroff  C.uint32_t
		errtype C.TSQueryError
	)
	lang := languages[language]
	if lang == nil {
		return nil, fmt.Errorf("unknown language %s; missing import _ statement", language)
	}

	input := C.CBytes(pattern)
	c := C.ts_query_new(
		(*C.struct_TSLanguage)(lang.ptr),
		(*C.char)(input),
		C.uint32_t(len(pattern)),
		&erroff,
		&errtype,
	)
	C.free(input)
	if errtype != C.TSQueryError(QueryErrorNone) {
		errorOffset := uint32(erroff)
		// search for the line containing the offset
		line := 1
		line_start := 0
		for i, c := range pattern {
			line_start = i
			if uint32(i) >= errorOffset {
				break
			}
			if c == '\n' {
				line++
			}
		}
		column := int(errorOffset) - line_start
		errorType := QueryErrorType(errtype)
		errorTypeToString := QueryErrorTypeToString(errorType)

		var message string
		switch errorType {
		// errors that apply to a single identifier
		case QueryErrorNodeType:
			fallthrough
		case QueryErrorField:
			fallthrough
		case QueryErrorCapture:
			// find identifier at input[errorOffset]
			// and report it in the error message
			s := string(pattern[errorOffset:])
			identifierRegexp := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*`)
			m := identifierRegexp.FindStringSubmatch(s)
			if len(m) > 0 {
				message = fmt.Sprintf("invalid %s '%s' at line %d column %d",
					errorTypeToString, m[0], line, column)
			} else {
				message = fmt.Sprintf("invalid %s at line %d column %d",
					errorTypeToString, line, column)
			}

		// errors the report position
		case QueryErrorSyntax:
			fallthrough
		case QueryErrorStructure:
			fallthrough
		case QueryErrorLanguage:
			fallthrough
		default:
			s := string(pattern[errorOffset:])
			lines := strings.Split(s, "\n")
			whitespace := strings.Repeat(" ", column)
			message = fmt.Sprintf("invalid %s at line %d column %d\n%s\n%s^",
				errorTypeToString, line, column,
				lines[0], whitespace)
		}

		return nil, &QueryError{
			Offset:  errorOffset,
			Type:    errorType,
			Message: message,
		}
	}

	q := &Query{c: c}

	// Copied from: https://github.com/klothoplatform/go-tree-sitter/commit/e351b20167b26d515627a4a1a884528ede5fef79
	// this is just used for syntax validation - it does not actually filter anything
	for i := uint32(0); i < q.PatternCount(); i++ {
		predicates := q.PredicatesForPattern(i)
		for _, steps := range predicates {
			if len(steps) == 0 {
				continue
			}

			if steps[0].Type != QueryPredicateStepTypeString {
				return nil, errors.New("predicate must begin with a literal value")
			}

			operator := q.StringValueForId(steps[0].ValueId)
			switch operator {
			case "eq?", "not-eq?":
				if len(steps) != 4 {
					return nil, fmt.Errorf("wrong number of arguments to `#%s` predicate. Expected 2, got %d", operator, len(steps)-2)
				}
				if steps[1].Type != QueryPredicateStepTypeCapture {
					return nil, fmt.Errorf("first argument of `#%s` predicate must be a capture. Got %s", operator, q.StringValueForId(steps[1].ValueId))
				}
			case "match?", "not-match?":
				if len(steps) != 4 {
					return nil, fmt.Errorf("wrong number of arguments to `#%s` predicate. Expected 2, got %d", operator, len(steps)-2)
				}
				if steps[1].Type != QueryPredicateStepTypeCapture {
					return nil, fmt.Errorf("first argument of `#%s` predicate must be a capture. Got %s", operator, q.StringValueForId(steps[1].ValueId))
				}
				if steps[2].Type != QueryPredicateStepTypeString {
					return nil, fmt.Errorf("second argument of `#%s` predicate must be a string. Got %s", operator, q.StringValueForId(steps[2].ValueId))
				}
			case "set!", "is?", "is-not?":
				if len(steps) < 3 || len(steps) > 4 {
					return nil, fmt.Errorf("wrong number of arguments to `#%s` predicate. Expected 1 or 2, got %d", operator, len(steps)-2)
				}
				if steps[1].Type != QueryPredicateStepTypeString {
					return nil, fmt.Errorf("first argument of `#%s` predicate must be a string. Got %s", operator, q.StringValueForId(steps[1].ValueId))
				}
				if len(steps) > 2 && steps[2].Type != QueryPredicateStepTypeString {
					return nil, fmt.Errorf("second argument of `#%s` predicate must be a string. Got %s", operator, q.StringValueForId(steps[2].ValueId))
				}
			}
		}
	}

	runtime.SetFinalizer(q, (*Query).Close)

	return q, nil
}

// Close should be called to ensure that all the memory used by the query is freed.
//
// As the constructor in go-tree-sitter would set this func call through runtime.SetFinalizer,
// Close will be called by Go's garbage collector and users would not have to call this manually.
func (q *Query) Close() {
	if q.c != nil {
		C.ts_query_delete(q.c)
		q.c = nil
	}
}

func (q *Query) PatternCount() uint32 {
	return uint32(C.ts_query_pattern_count(q.c))
}

type QueryPredicateStepType int

const (
	QueryPredicateStepTypeDone QueryPredicateStepType = iota
	QueryPredicateStepTypeCapture
	QueryPredicateStepTypeString
)

type QueryPredicateStep struct {
	Type    QueryPredicateStepType
	ValueId int
}

func (q *Query) PredicatesForPattern(patternIndex uint32) [][]QueryPredicateStep {
	var (
		length          C.uint32_t
		cPredicateSteps []C.TSQueryPredicateStep
		predicateSteps  []QueryPredicateStep
	)

	cPredicateStep := C.ts_query_predicates_for_pattern(q.c, C.uint32_t(patternIndex), &length)

	count := int(length)
	slice := (*reflect.SliceHeader)((unsafe.Pointer(&cPredicateSteps)))
	slice.Cap = count
	slice.Len = count
	slice.Data = uintptr(unsafe.Pointer(cPredicateStep))
	for _, s := range cPredicateSteps {
		stepType := QueryPredicateStepType(s._type)
		valueID := int(s.value_id)
		predicateSteps = append(predicateSteps, QueryPredicateStep{stepType, valueID})
	}

	return splitPredicates(predicateSteps)
}

func (q *Query) StringValueForId(id int) string {
	var length C.uint32_t
	value := C.ts_query_string_value_for_id(q.c, C.uint32_t(id), &length)
	return C.GoStringN(value, C.int(length))
}

// QueryCursor carries the state needed for processing the queries.
type QueryCursor struct {
	c *C.TSQueryCursor
	// keep a pointer to the query to avoid garbage collection
	q *Query
	t *Tree
}

// NewQueryCursor creates a query cursor.
func NewQueryCursor() *QueryCursor {
	qc := &QueryCursor{c: C.ts_query_cursor_new()}
	runtime.SetFinalizer(qc, (*QueryCursor).Close)
	return qc
}

// Exec executes the query on a given syntax node.
func (qc *QueryCursor) Exec(q *Query, n Node) {
	qc.q = q
	qc.t = n.t
	C.ts_query_cursor_exec(qc.c, q.c, n.c)
}

// Close should be called to ensure that all the memory used by the query cursor is freed.
//
// As the constructor in go-tree-sitter would set this func call through runtime.SetFinalizer,
// Close will be called by Go's garbage collector and users would not have to call this manually.
func (qc *QueryCursor) Close() {
	if qc.c != nil {
		C.ts_query_cursor_delete(qc.c)
		qc.c = nil
	}
}

// QueryCapture is a captured node by a query with an index
type QueryCapture struct {
	Index int
	Node  Node
}

// QueryMatch - you can then iterate over the matches.
type QueryMatch struct {
	ID           int
	PatternIndex uint16
	Captures     []QueryCapture
}

// NextMatch iterates over matches.
// This function will return (nil, false) when there are no more matches.
// Otherwise, it will populate the QueryMatch with data
// about which pattern matched and which nodes were captured.
func (qc *QueryCursor) NextMatch() (*QueryMatch, bool) {
	var cqm C.TSQueryMatch
	if ok := C.ts_query_cursor_next_match(qc.c, &cqm); !bool(ok) {
		return nil, false
	}

	qm := &QueryMatch{
		ID:           int(cqm.id),
		PatternIndex: uint16(cqm.pattern_index),
	}

	cqc := unsafe.Slice((*C.TSQueryCapture)(cqm.captures), int(cqm.capture_count))
	for _, c := range cqc {
		idx := int(c.index)
		qm.Captures = append(qm.Captures, QueryCapture{idx, Node{c: c.node, t: qc.t}})
	}

	return qm, true
}

// Copied From: https://github.com/klothoplatform/go-tree-sitter/commit/e351b20167b26d515627a4a1a884528ede5fef79

func splitPredicates(steps []QueryPredicateStep) [][]QueryPredicateStep {
	var predicateSteps [][]QueryPredicateStep
	var currentSteps []QueryPredicateStep
	for _, step := range steps {
		currentSteps = append(currentSteps, step)
		if step.Type == QueryPredicateStepTypeDone {
			predicateSteps = append(predicateSteps, currentSteps)
			currentSteps = []QueryPredicateStep{}
		}
	}
	return predicateSteps
}
