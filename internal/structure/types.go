// Package structure derives a normalized CodeStructure record from a parsed program.
package structure

// DataStructure is a kind of container the program builds or uses.
type DataStructure string

const (
	Array   DataStructure = "array"
	HashMap DataStructure = "hash_map"
	Set     DataStructure = "set"
	Stack   DataStructure = "stack"
	Queue   DataStructure = "queue"
	Tree    DataStructure = "tree"
	Graph   DataStructure = "graph"
	String  DataStructure = "string"
)

// Control-flow tokens, in the order they appear in the source.
const (
	FlowFor         = "loop_for"
	FlowWhile       = "loop_while"
	FlowConditional = "conditional"
)

// Complexity indicator keys.
const (
	IndicatorNestedLoops = "nested_loops"
	IndicatorRecursion   = "recursion"
)

// Return pattern values.
const (
	ReturnVoid       = "void"
	ReturnList       = "list"
	ReturnConstant   = "constant"
	ReturnExpression = "expression"
)

// Function describes one function definition.
type Function struct {
	// Name is the function name
	Name string `json:"name"`

	// Params lists the parameter names in declaration order
	Params []string `json:"params"`

	// ReturnCount is the number of return statements in the body, nested functions included
	ReturnCount int `json:"returnCount"`

	// MaxLoopNesting is the deepest static nesting of for/while loops
	MaxLoopNesting int `json:"maxLoopNesting"`

	// Recursive is true when the body calls the function by its own name.
	// Mutual recursion is not detected.
	Recursive bool `json:"recursive"`

	// StartLine is the line of the def keyword
	StartLine int `json:"startLine"`

	// EndLine is the last line of the body
	EndLine int `json:"endLine"`

	// Cyclomatic is the cyclomatic complexity (decision points + 1)
	Cyclomatic int `json:"cyclomatic"`

	// Cognitive is the cognitive complexity (nested depth weighted)
	Cognitive int `json:"cognitive"`
}

// CodeStructure is the structural summary of a program. It is built once by
// Analyze and never mutated afterwards.
type CodeStructure struct {
	Functions            []Function        `json:"functions"`
	Variables            map[string]string `json:"variables"`
	DataStructures       []DataStructure   `json:"dataStructures"`
	ControlFlow          []string          `json:"controlFlow"`
	ComplexityIndicators map[string]string `json:"complexityIndicators"`
	ReturnPattern        string            `json:"returnPattern,omitempty"`

	// LoopCount is the total number of for/while statements
	LoopCount int `json:"loopCount"`

	// MaxLoopNesting is the deepest loop nesting anywhere in the program
	MaxLoopNesting int `json:"maxLoopNesting"`
}

// HasDataStructure reports whether kind was detected.
func (cs *CodeStructure) HasDataStructure(kind DataStructure) bool {
	for _, k := range cs.DataStructures {
		if k == kind {
			return true
		}
	}
	return false
}

// HasNestedLoops reports whether any loop contains another loop.
func (cs *CodeStructure) HasNestedLoops() bool {
	_, ok := cs.ComplexityIndicators[IndicatorNestedLoops]
	return ok
}

// HasLoop reports whether the program contains any for or while loop.
func (cs *CodeStructure) HasLoop() bool {
	return cs.LoopCount > 0
}

// HasRecursion reports whether any function is directly recursive.
func (cs *CodeStructure) HasRecursion() bool {
	for _, fn := range cs.Functions {
		if fn.Recursive {
			return true
		}
	}
	return false
}

// Function returns the named function, or nil.
func (cs *CodeStructure) Function(name string) *Function {
	for i := range cs.Functions {
		if cs.Functions[i].Name == name {
			return &cs.Functions[i]
		}
	}
	return nil
}
