// Package cli implements todoctl, a command-line client for the todo API.
//
// Commands: list, add, edit, toggle, rm and clear. Todos are addressed by
// the zero-based position printed by list; filtered listings keep each
// todo's position in the full list. Positions are taken from the decoded
// list the server returns; a stored element the server skips makes them
// lag the backend positions of later todos. Output is text by default or a JSON
// envelope with --format json.
//
// # Exit Codes
//
//	0  success
//	1  request failed or server unreachable
//	2  bad arguments or flags
//	3  no todo at the given position
package cli
