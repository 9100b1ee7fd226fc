package codebase

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/c0ls/c0/source"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "c0ls"

type LSPServer struct {
	codebase *Codebase
	opts     []Option
	handler  protocol.Handler
	server   *server.Server
	version  string
	watcher  *FileWatcher

	mu     sync.Mutex
	notify glsp.NotifyFunc
	open   map[string]bool
}

func NewLSPServer(version string, opts ...Option) *LSPServer {
	ls := &LSPServer{
		version: version,
		opts:    opts,
		open:    make(map[string]bool),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
		TextDocumentHover:      ls.textDocumentHover,
		TextDocumentDefinition: ls.textDocumentDefinition,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}
	if abs, err := filepath.Abs(rootDir); err == nil {
		rootDir = abs
	}

	ls.codebase = New(rootDir, ls.opts...)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ">"},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	ls.mu.Lock()
	ls.notify = ctx.Notify
	ls.mu.Unlock()

	ls.codebase.ScanAll()
	ls.watcher = NewFileWatcher(ls.codebase, ls.republish)
	ls.watcher.Start()
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	if ls.watcher != nil {
		ls.watcher.Stop()
	}
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.mu.Lock()
	ls.open[path] = true
	ls.mu.Unlock()
	ls.update(path, []byte(params.TextDocument.Text))
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.update(path, []byte(textChange.Text))
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.mu.Lock()
	delete(ls.open, path)
	ls.mu.Unlock()
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.update(path, []byte(*params.Text))
	} else {
		ls.codebase.ScanFile(path)
		ls.republish(append([]string{path}, ls.codebase.Dependants(path)...))
	}
	return nil
}

// update stores new content for path and republishes the diagnostics of
// path and of the open files that depend on it.
func (ls *LSPServer) update(path string, content []byte) {
	affected := append([]string{path}, ls.codebase.Dependants(path)...)
	ls.codebase.UpdateFile(path, content)
	ls.republish(affected)
}

func (ls *LSPServer) republish(paths []string) {
	ls.mu.Lock()
	notify := ls.notify
	var open []string
	for _, p := range paths {
		if ls.open[p] {
			open = append(open, p)
		}
	}
	ls.mu.Unlock()
	if notify == nil {
		return
	}

	for _, path := range open {
		diags, err := ls.codebase.Diagnostics(path)
		if err != nil {
			log().Warningf("cannot analyze %s: %v", path, err)
			continue
		}
		items := []protocol.Diagnostic{}
		for _, d := range diags {
			if d.Span.File != "" && d.Span.File != path {
				continue
			}
			items = append(items, toProtocolDiagnostic(d))
		}
		notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         pathToURI(path),
			Diagnostics: items,
		})
	}
}

func (ls *LSPServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	r, err := ls.codebase.At(path, fromProtocolPosition(params.Position))
	if err != nil || r == nil {
		return nil, nil
	}
	rng := toProtocolRange(r.Span())
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hoverMarkdown(r.Hover()),
		},
		Range: &rng,
	}, nil
}

// hoverMarkdown puts the first line of a hover text, the declaration, in a
// code block and leaves the documentation after it as text.
func hoverMarkdown(text string) string {
	decl, doc, _ := strings.Cut(text, "\n\n")
	out := "```c0\n" + decl + "\n```"
	if doc != "" {
		out += "\n\n" + doc
	}
	return out
}

func (ls *LSPServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	span, ok := ls.codebase.Definition(path, fromProtocolPosition(params.Position))
	if !ok {
		return nil, nil
	}
	target := span.File
	if target == "" {
		target = path
	}
	if !filepath.IsAbs(target) {
		return nil, nil
	}
	return protocol.Location{URI: pathToURI(target), Range: toProtocolRange(span)}, nil
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}

	completions := ls.codebase.CompletionsAtPoint(path, fromProtocolPosition(params.Position))
	if len(completions) == 0 {
		return nil, nil
	}

	var items []protocol.CompletionItem
	for _, c := range completions {
		kind := toProtocolKind(c.Kind)
		detail := c.Detail
		insertText := c.InsertText
		format := protocol.InsertTextFormatSnippet

		items = append(items, protocol.CompletionItem{
			Label:            c.Label,
			Kind:             &kind,
			Detail:           &detail,
			InsertText:       &insertText,
			InsertTextFormat: &format,
		})
	}

	return items, nil
}

func toProtocolKind(kind CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case CompletionKindFunction:
		return protocol.CompletionItemKindFunction
	case CompletionKindField:
		return protocol.CompletionItemKindField
	case CompletionKindVariable:
		return protocol.CompletionItemKindVariable
	case CompletionKindType:
		return protocol.CompletionItemKindStruct
	default:
		return protocol.CompletionItemKindText
	}
}

func toProtocolDiagnostic(d source.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverity(d.Severity)
	src := lsName + "/" + string(d.Stage)
	msg := d.Message
	for _, h := range d.Hints {
		msg += "\nhint: " + h
	}
	return protocol.Diagnostic{
		Range:    toProtocolRange(d.Span),
		Severity: &severity,
		Source:   &src,
		Message:  msg,
	}
}

// Positions are one-based on our side and zero-based in the protocol.
// Columns are counted in bytes; C0 sources are ASCII.

func fromProtocolPosition(p protocol.Position) source.Position {
	return source.Position{Line: int(p.Line) + 1, Column: int(p.Character) + 1}
}

func toProtocolPosition(p source.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(max(p.Line-1, 0)),
		Character: protocol.UInteger(max(p.Column-1, 0)),
	}
}

func toProtocolRange(s source.Span) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(s.Start), End: toProtocolPosition(s.End)}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
