package models

import "strings"

const (
	ThinkTag         = `(?s)<think>.*?</think>`
	ContextSeparator = "\n---\n"

	DefaultPrefixChars    = 2000
	DefaultFindingChars   = 1500
	MainAnalysisPassLabel = "Main Analysis"
)

var (
	AnalysisSystemPrompt = "You are a research assistant skilled in analyzing academic and technical documents."

	// PassPromptTemplate is rendered with .Document, .Excerpt and .Query.
	PassPromptTemplate = `Analyze this text and answer the following query:
Text: {{.Excerpt}}...
Query: {{.Query}}

Provide:
1. Direct answer to the query
2. Supporting evidences
3. Key findings
4. Limitations of the analysis
`

	// SynthesisPromptTemplate is rendered with .Names and .Documents, each
	// document carrying .Name and .Findings (.Label, .Text).
	SynthesisPromptTemplate = `Compare the findings across the following documents: {{join .Names ", "}}.
{{range .Documents}}
Document: {{.Name}}
{{- range .Findings}}
[{{.Label}}]
{{.Text}}
{{- end}}
{{end}}
Provide:
1. Findings shared by the documents
2. Points where the documents disagree or contradict each other
3. Findings unique to a single document, naming it
4. Gaps none of the documents address
`
)

// DefaultPasses are the passes run on every document besides the user's own query.
func DefaultPasses() []AnalysisPass {
	return []AnalysisPass{
		{Label: "Key Points", Query: "Extract key points and findings"},
		{Label: "Summary", Query: "Provide a brief summary"},
	}
}

// Mode is a code-assistant persona: a system prompt and a starter prompt.
type Mode struct {
	Name         string `json:"name" yaml:"name"`
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
	Example      string `json:"example" yaml:"example"`
}

func DefaultModes() []Mode {
	return []Mode{
		{
			Name: "Code Generation",
			SystemPrompt: `You are an expert Python programmer who creates clean, efficient, and well-documented code.
When writing code:
1. Add a brief comment explaining purpose
2. Write clear docstrings for functions
3. Choose descriptive variable names
4. Include comments for complex logic
5. Follow PEP 8 style guidelines
6. Show example usage
7. Handle common edge cases`,
			Example: `Generate a Python function that calculates the factorial of a number.
The function should be named ` + "`factorial`" + ` and take one argument, ` + "`n`" + `, which is a non-negative integer.
Include error handling for negative inputs and provide an example usage.`,
		},
		{
			Name: "Code Explanation",
			SystemPrompt: `You are a knowledgeable coding instructor.
When explaining code:
1. Describe overall purpose and functionality
2. Explain each major component
3. Identify key programming concepts
4. Detail the execution flow
5. Clarify important variables and functions
6. Highlight clever techniques or patterns
7. Point out educational aspects for learners`,
			Example: "Explain the following code snippet:\n```python\n" + `def fibonacci(n):
    if n <= 0:
        return []
    elif n == 1:
        return [0]
    elif n == 2:
        return [0, 1]
    else:
        fib_sequence = [0, 1]
        for i in range(2, n):
            fib_sequence.append(fib_sequence[-1] + fib_sequence[-2])
        return fib_sequence
` + "```",
		},
		{
			Name: "Code Review",
			SystemPrompt: `You are a senior code reviewer with Python expertise.
Review code for:
1. Potential bugs or logical errors
2. Performance optimization opportunities
3. Security vulnerabilities
4. Style and PEP 8 compliance
5. Error handling improvements
6. Documentation completeness
7. Modularity and reusability
8. Memory efficiency
Provide specific improvement suggestions.`,
			Example: "Review the following code for best practices and potential improvements:\n```python\n" + `def add_numbers(a, b):
    return a + b
` + "```",
		},
	}
}

// FindMode looks a mode up by name, case-insensitively.
func FindMode(modes []Mode, name string) (Mode, bool) {
	for _, m := range modes {
		if strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(name)) {
			return m, true
		}
	}
	return Mode{}, false
}
