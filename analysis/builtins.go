// Copyright © 2024 The perlscope authors

package analysis

import (
	"sort"
	"strings"
)

// Special variables by sigil. Single character punctuation variables are
// listed without separators.
const (
	specialScalars = `_ ! @ ? ^ $ 0 . , / \ " ; % = - ~ | & ` + "`" + ` ' + [ ] < > ( ) : ^A ^C ^D ^E ^F ^H ^I ^L ^M ^N ^O ^P ^R ^S ^T ^V ^W ^X
		a b ARGV VERSION AUTOLOAD
		ARG ERRNO OS_ERROR EVAL_ERROR EXTENDED_OS_ERROR CHILD_ERROR PROCESS_ID PID PROGRAM_NAME
		REAL_USER_ID UID EFFECTIVE_USER_ID EUID REAL_GROUP_ID GID EFFECTIVE_GROUP_ID EGID
		INPUT_RECORD_SEPARATOR RS OUTPUT_RECORD_SEPARATOR ORS OUTPUT_FIELD_SEPARATOR OFS
		LIST_SEPARATOR SUBSCRIPT_SEPARATOR SUBSEP OUTPUT_AUTOFLUSH INPUT_LINE_NUMBER NR
		MATCH PREMATCH POSTMATCH LAST_PAREN_MATCH LAST_SUBMATCH_RESULT LAST_REGEXP_CODE_RESULT
		ACCUMULATOR FORMAT_NAME FORMAT_TOP_NAME FORMAT_LINES_LEFT FORMAT_LINES_PER_PAGE
		FORMAT_PAGE_NUMBER FORMAT_FORMFEED FORMAT_LINE_BREAK_CHARACTERS
		PERL_VERSION OLD_PERL_VERSION OSNAME BASETIME WARNING EXECUTABLE_NAME
		SYSTEM_FD_MAX EXCEPTIONS_BEING_CAUGHT DEBUGGING PERLDB INPLACE_EDIT COMPILING`
	specialArrays = `_ + - ARGV INC ISA EXPORT EXPORT_OK EXPORT_FAIL ARG F
		LAST_MATCH_START LAST_MATCH_END`
	specialHashes = `_ + - ! ENV INC SIG EXPORT_TAGS LAST_PAREN_MATCH OS_ERROR ERRNO main::`
	specialGlobs  = `STDIN STDOUT STDERR ARGV ARGVOUT DATA ENV INC`
)

// Built-in functions and keywords which may appear as barewords.
const knownFunctions = `
	print printf say open close read write seek tell eof fileno binmode sysopen sysread
	syswrite sysseek select getc readline flock truncate format formline
	chomp chop chr crypt fc hex index lc lcfirst length oct ord pack q qq qr quotemeta qw qx
	reverse rindex sprintf substr tr y uc ucfirst unpack pos study
	pop push shift unshift splice split join grep map sort wantarray
	delete each exists keys values
	die exit return goto last next redo continue break given when default dump
	stat lstat chdir chmod chown chroot link mkdir readlink rename rmdir symlink umask
	unlink utime glob opendir readdir closedir rewinddir seekdir telldir fcntl ioctl
	system exec fork wait waitpid kill sleep alarm getpgrp getppid getpriority setpgrp
	setpriority time times localtime gmtime syscall pipe
	abs atan2 cos exp int log rand sin sqrt srand
	defined undef ref bless tie tied untie eval evalbytes caller import unimport require use
	no do package sub method my our local state scalar warn lock prototype sprintf
	socket socketpair bind connect listen accept shutdown getsockopt setsockopt
	getsockname getpeername send recv
	getpwnam getpwuid getgrnam getgrgid getlogin getpwent getgrent gethostbyname
	gethostbyaddr getprotobyname getservbyname
	msgctl msgget msgrcv msgsnd semctl semget semop shmctl shmget shmread shmwrite
	vec local reset dbmopen dbmclose
	if unless else elsif while until for foreach try catch finally defer
	and or not xor lt gt le ge eq ne cmp x isa
	BEGIN END INIT CHECK UNITCHECK AUTOLOAD DESTROY SUPER CORE
	STDIN STDOUT STDERR ARGV ARGVOUT DATA STDHANDLE
	__PACKAGE__ __FILE__ __LINE__ __SUB__ __END__ __DATA__ __CLASS__`

// Functions whose first argument may be a bareword filehandle.
const filehandleFunctions = `open close binmode eof fileno flock seek tell truncate
	read sysread syswrite sysopen sysseek getc select write readline
	opendir readdir closedir rewinddir seekdir telldir stat lstat chdir
	socket bind connect listen accept shutdown send recv pipe`

var (
	builtinScalars = wordSet(specialScalars)
	builtinArrays  = wordSet(specialArrays)
	builtinHashes  = wordSet(specialHashes)
	builtinGlobs   = wordSet(specialGlobs)
	builtinFuncs   = wordSet(knownFunctions)
	filehandleFns  = wordSet(filehandleFunctions)
)

// argumentWriters maps functions that store into one of their arguments to
// the index of that argument.
var argumentWriters = map[string]int{
	"push":    0,
	"unshift": 0,
	"splice":  0,
	"open":    0,
	"opendir": 0,
	"sysopen": 0,
	"socket":  0,
	"pipe":    0,
	"read":    1,
	"sysread": 1,
	"recv":    1,
}

func wordSet(words string) map[string]struct{} {
	fields := strings.Fields(words)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// IsBuiltinGlobal reports whether sigil and name spell one of Perl's special
// or conventional global variables, which need no declaration.
func IsBuiltinGlobal(sigil, name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	if 'a' <= c && c <= 'z' && name != "a" && name != "b" {
		return false
	}
	var set map[string]struct{}
	switch sigil {
	case "$":
		set = builtinScalars
	case "@":
		set = builtinArrays
	case "%":
		set = builtinHashes
	case "*", "":
		set = builtinGlobs
	default:
		return false
	}
	if _, ok := set[name]; ok {
		return true
	}
	switch {
	case sigil == "$" && isDigits(name):
		// numbered capture groups
		return true
	case sigil != "" && isCaretName(name):
		return true
	}
	return false
}

// IsKnownFunction reports whether a bareword names a Perl built-in function,
// keyword, standard filehandle or compile time token.
func IsKnownFunction(name string) bool {
	_, ok := builtinFuncs[name]
	return ok
}

// KnownFunctions returns the names IsKnownFunction accepts, sorted.
func KnownFunctions() []string {
	names := make([]string, 0, len(builtinFuncs))
	for name := range builtinFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsFilehandleFunction reports whether the first argument of the function
// may be a bareword filehandle.
func IsFilehandleFunction(name string) bool {
	_, ok := filehandleFns[name]
	return ok
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// isCaretName matches $^W and ${^WARNING_BITS}.
func isCaretName(s string) bool {
	if len(s) < 2 || s[0] != '^' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !('A' <= c && c <= 'Z') && c != '_' && !(i > 1 && '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
