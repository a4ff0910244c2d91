// Package pipeline selects, resolves and drives the canonical pipeline stages.
package pipeline

import (
	"fmt"

	"github.com/initializ/mlpipe/artifact"
	"github.com/initializ/mlpipe/runtime"
)

// Stage is static metadata for one pipeline step.
type Stage struct {
	Name     string
	Index    int
	Location runtime.Location
	Params   []ParamSpec
}

// ParamKind describes where a parameter value comes from.
type ParamKind int

const (
	// ParamLiteral is a fixed string.
	ParamLiteral ParamKind = iota
	// ParamConfig is a scalar read from the run configuration.
	ParamConfig
	// ParamArtifact is an artifact reference with a fixed qualifier.
	ParamArtifact
	// ParamFile is a config mapping written to the scratch workspace as
	// JSON and passed by absolute path.
	ParamFile
)

// ParamSpec declares one parameter a stage requires.
type ParamSpec struct {
	Name  string
	Kind  ParamKind
	Value string       // ParamLiteral
	Key   string       // ParamConfig, ParamFile: dotted config path
	Ref   artifact.Ref // ParamArtifact
	File  string       // ParamFile: file name inside the workspace
}

// Source describes where the parameter value comes from.
func (p ParamSpec) Source() string {
	switch p.Kind {
	case ParamConfig:
		return "config " + p.Key
	case ParamArtifact:
		return "artifact " + p.Ref.String()
	case ParamFile:
		return "file " + p.File + " <- " + p.Key
	default:
		return fmt.Sprintf("literal %q", p.Value)
	}
}

func literal(name, value string) ParamSpec {
	return ParamSpec{Name: name, Kind: ParamLiteral, Value: value}
}

func fromConfig(name, key string) ParamSpec {
	return ParamSpec{Name: name, Kind: ParamConfig, Key: key}
}

func ref(name, artifactName, qualifier string) ParamSpec {
	return ParamSpec{Name: name, Kind: ParamArtifact, Ref: artifact.MustNew(artifactName, qualifier)}
}

func file(name, key, fileName string) ParamSpec {
	return ParamSpec{Name: name, Kind: ParamFile, Key: key, File: fileName}
}

// Canonical stage names.
const (
	StageDownload            = "download"
	StageBasicCleaning       = "basic_cleaning"
	StageDataCheck           = "data_check"
	StageDataSplit           = "data_split"
	StageTrainRandomForest   = "train_random_forest"
	StageTestRegressionModel = "test_regression_model"
)

var catalog = []Stage{
	{
		Name:     StageDownload,
		Location: runtime.Location{Path: "components/get_data"},
		Params: []ParamSpec{
			fromConfig("sample", "etl.sample"),
			literal("artifact_name", "sample.csv"),
			literal("artifact_type", "raw_data"),
			literal("artifact_description", "Raw file as downloaded"),
		},
	},
	{
		Name:     StageBasicCleaning,
		Location: runtime.Location{Path: "src/basic_cleaning"},
		Params: []ParamSpec{
			ref("input_artifact", "sample.csv", artifact.Latest),
			literal("output_artifact", "clean_sample.csv"),
			literal("output_type", "clean_sample"),
			literal("output_description", "Data with outliers and null values removed"),
			fromConfig("min_price", "etl.min_price"),
			fromConfig("max_price", "etl.max_price"),
		},
	},
	{
		Name:     StageDataCheck,
		Location: runtime.Location{Path: "src/data_check"},
		Params: []ParamSpec{
			ref("csv", "clean_sample.csv", artifact.Latest),
			ref("ref", "clean_sample.csv", "reference"),
			fromConfig("kl_threshold", "data_check.kl_threshold"),
			fromConfig("min_price", "data_check.min_price"),
			fromConfig("max_price", "data_check.max_price"),
		},
	},
	{
		Name:     StageDataSplit,
		Location: runtime.Location{Path: "train_val_test_split", Remote: true},
		Params: []ParamSpec{
			ref("input", "clean_sample.csv", artifact.Latest),
			fromConfig("test_size", "modeling.test_size"),
			fromConfig("random_seed", "modeling.random_seed"),
			fromConfig("stratify_by", "modeling.stratify_by"),
		},
	},
	{
		Name:     StageTrainRandomForest,
		Location: runtime.Location{Path: "src/train_random_forest"},
		Params: []ParamSpec{
			ref("trainval_artifact", "trainval_data.csv", artifact.Latest),
			fromConfig("val_size", "modeling.val_size"),
			fromConfig("random_seed", "modeling.random_seed"),
			fromConfig("stratify_by", "modeling.stratify_by"),
			file("rf_config", "modeling.random_forest", "rf_config.json"),
			fromConfig("max_tfidf_features", "modeling.max_tfidf_features"),
			literal("output_artifact", "random_forest_export"),
		},
	},
	{
		Name:     StageTestRegressionModel,
		Location: runtime.Location{Path: "test_regression_model", Remote: true},
		Params: []ParamSpec{
			ref("mlflow_model", "random_forest_export", "prod"),
			ref("test_dataset", "test_data.csv", artifact.Latest),
		},
	},
}

var byName map[string]Stage

func init() {
	byName = make(map[string]Stage, len(catalog))
	for i := range catalog {
		catalog[i].Index = i
		byName[catalog[i].Name] = catalog[i]
	}
}

// Catalog returns every stage in canonical order.
func Catalog() []Stage {
	return append([]Stage(nil), catalog...)
}

// Lookup returns the stage with the given name.
func Lookup(name string) (Stage, bool) {
	s, ok := byName[name]
	return s, ok
}
