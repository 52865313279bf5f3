package syntax

import "github.com/alecthomas/participle/v2/lexer"

// Lexer tokenizes the textual notation: component kinds as keywords,
// opcode names as bare identifiers.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Int", `0x[0-9a-fA-F]+|[0-9]+`, nil},
		{"Operator", `(->|==|!=|<=|>=|[-+*/%<>=])`, nil},
		{"Punctuation", `[{}():,;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
