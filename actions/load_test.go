package actions

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/transform"
)

var testLog = logger.NewLogger("imfpipe", "error", true)

// testReplacements returns a full placeholder map so the reference JSON
// definitions can be rendered without leaving tokens behind.
func testReplacements() map[string]string {
	return map[string]string{
		"${sleepSeconds}":                      "0",
		"${repeatTransform}":                   transform.TransformOnce,
		"${apiBaseUrl}":                        "https://www.imf.org/external/datamapper/api/v1",
		"${dataset}":                           "WEO",
		"${indicatorCodes}":                    "NGDP_RPCH,PCPIPCH",
		"${apiTimeoutSeconds}":                 "30",
		"${yearFilterRule}":                    mustJsonEscape(testLog, getYearFilterRule(2000, 2025)),
		"${targetEnv}":                         "snowtest",
		"${tgtDsn}":                            "user:pass@account/db/schema",
		"${targetObject}":                      "IMF.INDICATOR_VALUES",
		"${targetSchema}":                      "IMF",
		"${targetTable}":                       "INDICATOR_VALUES",
		"${stagingObject}":                     "IMF.INDICATOR_VALUES_STAGING",
		"${stagingTable}":                      "INDICATOR_VALUES_STAGING",
		"${truncateTargetEnabled1orDisabled0}": "1",
		"${commitBatchSize}":                   "10000",
		"${verifyMaxAttempts}":                 "30",
		"${verifySleepSeconds}":                "1",
		"${fileNamePrefix}":                    "indicator_values",
		"${csvMaxFileRows}":                    "100000",
		"${csvMaxFileBytes}":                   "104857600",
		"${tgtS3BucketName}":                   "test-bucket",
		"${tgtS3BucketPrefix}":                 "imf",
		"${tgtS3Region}":                       "eu-west-2",
		"${snowflakeStage}":                    "IMF.STG_INDICATOR_VALUES",
		"${snowflakeTable}":                    "IMF.INDICATOR_VALUES",
		"${deleteTarget}":                      "true",
	}
}

// mustRenderDefinition replaces placeholders in a copy of the supplied reference
// JSON and unmarshals the result.
func mustRenderDefinition(t *testing.T, referenceJson string) *transform.TransformDefinition {
	t.Helper()
	s := referenceJson // copy so the package-level definition keeps its tokens.
	mustReplaceInStringUsingMapKeyVals(&s, testReplacements())
	if idx := strings.Index(s, "${"); idx >= 0 {
		t.Fatalf("unreplaced token remains in definition: %v", s[idx:idx+30])
	}
	def := &transform.TransformDefinition{}
	if err := json.Unmarshal([]byte(s), def); err != nil {
		t.Fatalf("unable to unmarshal definition: %v", err)
	}
	return def
}

func TestLoadSnapshotDefinition(t *testing.T) {
	def := mustRenderDefinition(t, jsonLoadSnapshot)
	if def.Type != transform.TransformOnce {
		t.Fatalf("expected transform type %q, got %q", transform.TransformOnce, def.Type)
	}
	if len(def.Sequence) != 2 || def.Sequence[0] != "optionalTruncateTarget" || def.Sequence[1] != "loadIndicators" {
		t.Fatalf("unexpected group sequence %v", def.Sequence)
	}
	g, ok := def.StepGroups["loadIndicators"]
	if !ok {
		t.Fatal("missing group loadIndicators")
	}
	appendStep, ok := g.Steps["writeToTarget"]
	if !ok {
		t.Fatal("missing step writeToTarget")
	}
	if appendStep.Type != "TableAppend" {
		t.Fatalf("expected TableAppend step, got %q", appendStep.Type)
	}
	if got := appendStep.Data["outputTable"]; got != "INDICATOR_VALUES" {
		t.Fatalf("expected target table INDICATOR_VALUES, got %q", got)
	}
	// Truncate runs against the target itself, before the load group.
	truncGroup := def.StepGroups["optionalTruncateTarget"]
	genStep := truncGroup.Steps["generateRows"]
	if !strings.Contains(genStep.Data["fieldNamesValuesCSV"], "truncate table IMF.INDICATOR_VALUES") {
		t.Fatalf("expected truncate SQL against target, got %q", genStep.Data["fieldNamesValuesCSV"])
	}
}

func TestLoadStreamDefinition(t *testing.T) {
	def := mustRenderDefinition(t, jsonLoadStream)
	want := []string{"prepareStaging", "loadStaging", "swapTables"}
	if len(def.Sequence) != len(want) {
		t.Fatalf("unexpected group sequence %v", def.Sequence)
	}
	for i := range want {
		if def.Sequence[i] != want[i] {
			t.Fatalf("expected group %v at position %v, got %v", want[i], i, def.Sequence[i])
		}
	}
	// The append lands in the staging table, never the target.
	appendStep := def.StepGroups["loadStaging"].Steps["appendToStaging"]
	if got := appendStep.Data["outputTable"]; got != "INDICATOR_VALUES_STAGING" {
		t.Fatalf("expected staging table, got %q", got)
	}
	if appendStep.Data["verifyMaxAttempts"] != "30" || appendStep.Data["verifySleepSeconds"] != "1" {
		t.Fatalf("unexpected verify settings in %v", appendStep.Data)
	}
	// The cut-over is a swap, so readers never see a part-loaded target.
	genStep := def.StepGroups["swapTables"].Steps["generateRows"]
	if !strings.Contains(genStep.Data["fieldNamesValuesCSV"], "swap with IMF.INDICATOR_VALUES_STAGING") {
		t.Fatalf("expected swap SQL, got %q", genStep.Data["fieldNamesValuesCSV"])
	}
}

func TestLoadStageDefinition(t *testing.T) {
	def := mustRenderDefinition(t, jsonLoadStage)
	g := def.StepGroups["loadIndicators"]
	want := []string{"readApi", "filterYears", "csvWriter", "copyFilesToS3", "copyIntoSnowflake"}
	for i := range want {
		if g.Sequence[i] != want[i] {
			t.Fatalf("expected step %v at position %v, got %v", want[i], i, g.Sequence[i])
		}
	}
	// The S3 object name field must link the uploader to the Snowflake loader.
	s3Step := g.Steps["copyFilesToS3"]
	loaderStep := g.Steps["copyIntoSnowflake"]
	if s3Step.Data["outputFieldName4ObjectName"] != loaderStep.Data["fieldName4FileName"] {
		t.Fatalf("file name field mismatch: %q vs %q",
			s3Step.Data["outputFieldName4ObjectName"], loaderStep.Data["fieldName4FileName"])
	}
	if g.Steps["csvWriter"].Data["useGzip"] != "true" {
		t.Fatal("expected gzip CSV output for stage loads")
	}
}

func TestGetYearFilterRule(t *testing.T) {
	rule := getYearFilterRule(2010, 0)
	if !strings.Contains(rule, "2010") || !strings.Contains(rule, "9999") {
		t.Fatalf("expected open-ended range to default to 9999, got %v", rule)
	}
	var v interface{}
	if err := json.Unmarshal([]byte(rule), &v); err != nil {
		t.Fatalf("rule is not valid JSON: %v", err)
	}
}
