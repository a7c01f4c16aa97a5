package main

import (
	"os"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/yaroher/protoc-gen-go-micropb/config"
	"github.com/yaroher/protoc-gen-go-micropb/generator"
	"github.com/yaroher/protoc-gen-go-micropb/ir"
	"github.com/yaroher/protoc-gen-go-micropb/logger"
)

func Generate(p *protogen.Plugin) error {
	settings, err := config.Parse(p.Request.GetParameter())
	if err != nil {
		return err
	}
	graph, err := ir.Build(p.Request.GetProtoFile(), ir.Options{
		Config:   settings.Tree,
		Generate: p.Request.GetFileToGenerate(),
	})
	if err != nil {
		return err
	}
	for _, d := range graph.Diagnostics {
		if d.Level == ir.DiagInfo {
			logger.Info(d.Message, zap.String("subject", d.Subject))
			continue
		}
		logger.Warn(d.Message, zap.String("subject", d.Subject))
	}
	ir.BreakCycles(graph)
	ir.ComputeSizes(graph)

	if settings.DumpIR != "" {
		if err := os.WriteFile(settings.DumpIR, ir.DumpJSON(graph), 0o644); err != nil {
			return errors.Wrap(err, "dump ir")
		}
	}

	g, err := generator.NewGenerator(p, graph, generator.WithSuffix(settings.Suffix))
	if err != nil {
		return err
	}
	return g.Generate()
}

func main() {
	protogen.Options{}.Run(func(plugin *protogen.Plugin) error {
		plugin.SupportedFeatures = uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL |
			pluginpb.CodeGeneratorResponse_FEATURE_SUPPORTS_EDITIONS)
		plugin.SupportedEditionsMinimum = descriptorpb.Edition_EDITION_PROTO2
		plugin.SupportedEditionsMaximum = descriptorpb.Edition_EDITION_2024
		return Generate(plugin)
	})
}
