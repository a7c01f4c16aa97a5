package generator

import (
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"google.golang.org/protobuf/compiler/protogen"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/internal/help"
	"github.com/yaroher/protoc-gen-go-micropb/ir"
	"github.com/yaroher/protoc-gen-go-micropb/logger"
)

const (
	micropbPkg = protogen.GoImportPath("github.com/yaroher/protoc-gen-go-micropb/micropb")
	jxPkg      = protogen.GoImportPath("github.com/go-faster/jx")
)

// Generator пишет Go-код для всех файлов графа, помеченных к генерации.
type Generator struct {
	Plugin *protogen.Plugin
	Graph  *ir.Graph
	suffix string

	// proto full name -> Go-пакет, куда генерируется тип
	imports map[string]protogen.GoImportPath
}

type Option func(*Generator) error

func WithSuffix(suffix string) Option {
	return func(g *Generator) error {
		if suffix == "" {
			return errors.New("empty output suffix")
		}
		g.suffix = suffix
		return nil
	}
}

func NewGenerator(p *protogen.Plugin, graph *ir.Graph, opts ...Option) (*Generator, error) {
	g := &Generator{
		Plugin: p,
		Graph:  graph,
		suffix: config.DefaultSuffix,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	g.imports = help.GoImportPaths(p)
	return g, nil
}

func (g *Generator) Generate() error {
	l := logger.Logger.Named("generator")
	for _, f := range g.Graph.Files {
		if !f.Generate {
			continue
		}
		pf, ok := g.Plugin.FilesByPath[f.Name]
		if !ok {
			return errors.Errorf("file %s is not part of the request", f.Name)
		}
		if err := g.NewFileGen(pf, f).GenFile(); err != nil {
			return errors.Wrap(err, f.Name)
		}
		l.Debug("file",
			zap.String("proto", f.Name),
			zap.String("go_package", string(pf.GoImportPath)),
			zap.Int("messages", len(f.Messages)),
			zap.Int("enums", len(f.Enums)),
		)
	}
	return nil
}
