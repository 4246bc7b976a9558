// Copyright © 2024 The perlscope authors

package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/perlscope/parser/token"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []string
	}{
		{``, []string{"EOF:"}},
		{`my $x = 10;`, []string{
			"identifier:my", "variable:$x", "operator:=", "number:10", ";:;", "EOF:",
		}},
		{`$x / 2; split /,/, $s;`, []string{
			"variable:$x", "operator:/", "number:2", ";:;",
			"identifier:split", "regex:/,/", ",:,", "variable:$s", ";:;", "EOF:",
		}},
		{`%h = (a => 1); $n % 2`, []string{
			"variable:%h", "operator:=", "(:(", "identifier:a", "=>:=>", "number:1", "):)", ";:;",
			"variable:$n", "operator:%", "number:2", "EOF:",
		}},
		{`@{$r} $#a $#{$r} $$ $$r ${name} $^W $0 $_`, []string{
			"cast:@", "{:{", "variable:$r", "}:}",
			"variable:$#a",
			"cast:$#", "{:{", "variable:$r", "}:}",
			"variable:$$",
			"cast:$", "variable:$r",
			"variable:${name}",
			"variable:$^W",
			"variable:$0",
			"variable:$_",
			"EOF:",
		}},
		{"print <<\"EOT\", $y;\nHello $x\nEOT\ndone();", []string{
			"identifier:print", `interpolated-string:<<"EOT"`, ",:,", "variable:$y", ";:;",
			"identifier:done", "(:(", "):)", ";:;", "EOF:",
		}},
		{"my $t = <<~EOT;\n    hi\n    EOT\n1;", []string{
			"identifier:my", "variable:$t", "operator:=", "interpolated-string:<<~EOT", ";:;",
			"number:1", ";:;", "EOF:",
		}},
		{`q{a{b}c} qw(x y) s{a}{b}g tr/a-z/A-Z/ m#x#i`, []string{
			"string:q{a{b}c}", "qw:qw(x y)", "substitution:s{a}{b}g",
			"transliteration:tr/a-z/A-Z/", "regex:m#x#i", "EOF:",
		}},
		{"=pod\n\nfoo\n\n=cut\nmy $x;", []string{
			"pod:=pod\n\nfoo\n\n=cut\n", "identifier:my", "variable:$x", ";:;", "EOF:",
		}},
		{"# comment\n__END__\nstuff", []string{"#:# comment", "EOF:"}},
		{`sub foo($$) { }`, []string{
			"identifier:sub", "identifier:foo", "prototype:($$)", "{:{", "}:}", "EOF:",
		}},
		{`sub add($x, $y) { }`, []string{
			"identifier:sub", "identifier:add", "(:(", "variable:$x", ",:,", "variable:$y", "):)",
			"{:{", "}:}", "EOF:",
		}},
		{`while (<STDIN>) { -e $f }`, []string{
			"identifier:while", "(:(", "readline:<STDIN>", "):)", "{:{",
			"filetest:-e", "variable:$f", "}:}", "EOF:",
		}},
		{`$a lt $b x 3 and not $c`, []string{
			"variable:$a", "operator:lt", "variable:$b", "operator:x", "number:3",
			"operator:and", "operator:not", "variable:$c", "EOF:",
		}},
		{`$obj->s(1); $h{y}`, []string{
			"variable:$obj", "->:->", "identifier:s", "(:(", "number:1", "):)", ";:;",
			"variable:$h", "{:{", "identifier:y", "}:}", "EOF:",
		}},
		{`1..10 0x1F 1.5e3 v5.36.0`, []string{
			"number:1", "operator:..", "number:10", "number:0x1F", "number:1.5e3", "number:v5.36.0", "EOF:",
		}},
		{`my $s = shift // 'x';`, []string{
			"identifier:my", "variable:$s", "operator:=", "identifier:shift", "operator://",
			"string:'x'", ";:;", "EOF:",
		}},
		{`local *STDOUT; &foo; $x & 1; Foo::Bar->new`, []string{
			"identifier:local", "variable:*STDOUT", ";:;",
			"variable:&foo", ";:;",
			"variable:$x", "operator:&", "number:1", ";:;",
			"identifier:Foo::Bar", "->:->", "identifier:new", "EOF:",
		}},
	}
testloop:
	for i, test := range tests {
		lex := New(token.NewScanner("", []byte(test.input)))
		var tokens []string
		numToken := 0
		for {
			toks := lex.ReadToken()
			if len(toks) != 1 {
				t.Fatalf("test %d: lexer returned %d tokens", i, len(toks))
			}
			tok := toks[0]
			tokens = append(tokens, tok.Type.String()+":"+tok.Text)
			if tok.Type == token.EOF || tok.Type == token.ERROR {
				break
			}
			numToken++
			if numToken > 100000 {
				t.Errorf("test %d: apparent infinite scanning loop", i)
				continue testloop
			}
		}
		assert.Equal(t, test.tokens, tokens, "test %d: %s", i, test.input)
	}
}

func TestLexerValues(t *testing.T) {
	src := "my $x = \"a $b\";\nprint <<EOT;\nHello $x\nEOT\n$h{k} =~ s/a/b/e;"
	toks := Tokenize("t.pl", []byte(src))

	find := func(typ token.Type) *token.Token {
		for _, tok := range toks {
			if tok.Type == typ {
				return tok
			}
		}
		t.Fatalf("no %v token", typ)
		return nil
	}

	str := toks[3]
	require.Equal(t, token.ISTRING, str.Type)
	assert.Equal(t, "a $b", str.Value)
	assert.Equal(t, strings.Index(src, "a $b"), str.ValuePos)

	heredoc := toks[6]
	require.Equal(t, token.ISTRING, heredoc.Type)
	assert.Equal(t, "Hello $x\n", heredoc.Value)
	assert.Equal(t, strings.Index(src, "Hello"), heredoc.ValuePos)

	subst := find(token.SUBST)
	assert.Equal(t, "a", subst.Value)
	assert.Equal(t, "b", subst.Extra)
	assert.Equal(t, "e", subst.Flags)
	assert.Equal(t, strings.LastIndex(src, "b/e"), subst.ExtraPos)

	x := toks[1]
	assert.Equal(t, "x", x.Value)
	assert.Equal(t, 4, x.ValuePos)
	assert.Equal(t, "t.pl:1:4", x.Source.String())
	assert.Equal(t, 5, x.Source.End)
}

func TestLexerUnterminated(t *testing.T) {
	toks := Tokenize("", []byte(`my $x = "abc`))
	last := toks[len(toks)-2]
	assert.Equal(t, token.ERROR, last.Type)
	assert.Equal(t, "unterminated string literal", last.Value)

	toks = Tokenize("", []byte("print <<EOT;\nno end\n"))
	assert.Equal(t, token.ERROR, toks[1].Type)
	assert.Contains(t, toks[1].Value, `"EOT"`)
}

func TestLexerDataStart(t *testing.T) {
	src := "1;\n__DATA__\nraw"
	lex := New(token.NewScanner("", []byte(src)))
	for lex.ReadToken()[0].Type != token.EOF {
	}
	assert.Equal(t, 3, lex.DataStart())
}

func TestInterpolations(t *testing.T) {
	tests := []struct {
		body  string
		regex bool
		want  []string
	}{
		{`a $x b`, false, []string{"$x"}},
		{`$h{key}[0] $obj->{a}->[1] $obj->method @{[ 1 ]} ${name} \$no $$ email@x.com`, false, []string{
			"$h{key}[0]", "$obj->{a}->[1]", "$obj", "@{[ 1 ]}", "${name}", "$$", "@x",
		}},
		{`error: $@ at $0 line $1`, false, []string{"$@", "$0", "$1"}},
		{`^\s*$|foo$bar{2,3}[a-z]$x[1]`, true, []string{"$bar", "$x[1]"}},
		{`$Foo::bar::`, false, []string{"$Foo::bar"}},
		{`cost: $`, false, nil},
	}
	for _, test := range tests {
		src := []byte(test.body)
		var got []string
		for _, span := range Interpolations(src, 0, len(src), test.regex) {
			got = append(got, string(src[span.Start:span.End]))
		}
		assert.Equal(t, test.want, got, test.body)
	}
}

func TestLexerPostfixDeref(t *testing.T) {
	var got []string
	for _, tok := range Tokenize("", []byte(`$r->@* $r->%{a} $r->$#*`)) {
		got = append(got, tok.Type.String()+":"+tok.Text)
	}
	assert.Equal(t, []string{
		"variable:$r", "->:->", "operator:@*",
		"variable:$r", "->:->", "operator:%", "{:{", "identifier:a", "}:}",
		"variable:$r", "->:->", "operator:$#*",
		"EOF:",
	}, got)
}
