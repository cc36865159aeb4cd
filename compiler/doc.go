/*

Process of compilation

Program Text ->
	lex ->
Tokens ->
	parse ->
Instruction Lists (ast.Func.Code) ->
	analyze ->
Expression Trees (ast.Func.Tree) ->
	back + arch (limn2k, llvm) ->
Assembly Text

Each step after parse rewrites the functions in place.
A unit can be lowered once and compiled once.

*/
package compiler
