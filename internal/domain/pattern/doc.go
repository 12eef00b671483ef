// Package pattern models SMARTS/SMIRKS substructure patterns as labeled
// graphs. A pattern string is parsed into a Graph of atoms and bonds, each
// carrying an OR-group of alternatives and an AND-set of extra decorators.
// The graph can be classified by its positional labels, queried by
// descriptor, extended or pruned, and written back as a pattern string.
package pattern

//Personal.AI order the ending
