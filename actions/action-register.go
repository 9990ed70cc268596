package actions

import (
	"fmt"
	"reflect"

	"github.com/imfpipe/imfpipe/constants"
)

type SrcAndTgtConnections struct {
	Connections  ConnectionHandler
	SourceString ConnectionObject
	TargetString ConnectionObject
}

type Action struct {
	FnAction   func(actionCfg interface{}) error                         // the function to execute the action
	ActionCfg  interface{}                                               // the config struct to pass to the FnAction
	FnSetupCfg func(genericCfg interface{}, actionCfg interface{}) error // the function to convert generic cfg to action-specific config for the FnAction
}

// ActionLauncher will:
// 1) call the function fnActionGetter to find the Action{} based on the targetType string supplied.
// 2) Once it has the Action{}, it calls setup function Action.FnSetupCfg() to populate Action.ActionCfg{}.
// 3) Then it can start the action by calling Action.FnAction().
// TODO: consider moving use of fnActionGetter out to the caller such that the caller supplies a fn(void) to call all
//  preconfigured ready to go.
func ActionLauncher(
	cfg interface{},
	fnActionGetter func(targetType string) (Action, error),
	targetType string) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("expected pointer to config in variable cfg to be supplied to ActionLauncher")
	}
	// Fetch the action.
	a, err := fnActionGetter(targetType)
	if err != nil {
		return err
	}
	// Populate the action's config struct using the generic.
	if err = a.FnSetupCfg(cfg, a.ActionCfg); err != nil {
		return err
	}
	// Run the action.
	return a.FnAction(a.ActionCfg)
}

// ActionFuncs is a register of all supported actions.
// The source is always the DataMapper API so the final map[string]Action is keyed by
// the target connection type alone. Those keys are also used to validate DSN-type
// database connections before they are added. See RunConnectionAdd().
var ActionFuncs = map[string]map[string]map[string]Action{
	constants.ActionFuncsCommandLoad: { // command...
		constants.ActionFuncsSubCommandSnap: { // subcommand...
			"snowflake": Action{FnAction: RunLoadSnapshot, ActionCfg: &LoadSnapshotConfig{}, FnSetupCfg: SetupLoadSnapshot},
		},
		constants.ActionFuncsSubCommandStage: {
			// Requires an external stage over S3 so the bucket flags are mandatory.
			"snowflake": Action{FnAction: RunLoadStage, ActionCfg: &LoadStageConfig{}, FnSetupCfg: SetupLoadStage},
		},
		constants.ActionFuncsSubCommandStream: {
			"snowflake": Action{FnAction: RunLoadStream, ActionCfg: &LoadStreamConfig{}, FnSetupCfg: SetupLoadStream},
		},
	},
}

// GetLoadSnapAction returns the "load snapshot" Action based on the targetType supplied.
func GetLoadSnapAction(targetType string) (Action, error) {
	retval, ok := ActionFuncs[constants.ActionFuncsCommandLoad][constants.ActionFuncsSubCommandSnap][targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported load snapshot action for target type %q", targetType)
	}
	return retval, nil
}

// GetLoadStageAction returns the "load stage" Action based on the targetType supplied.
func GetLoadStageAction(targetType string) (Action, error) {
	retval, ok := ActionFuncs[constants.ActionFuncsCommandLoad][constants.ActionFuncsSubCommandStage][targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported load stage action for target type %q", targetType)
	}
	return retval, nil
}

// GetLoadStreamAction returns the "load stream" Action based on the targetType supplied.
func GetLoadStreamAction(targetType string) (Action, error) {
	retval, ok := ActionFuncs[constants.ActionFuncsCommandLoad][constants.ActionFuncsSubCommandStream][targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported load stream action for target type %q", targetType)
	}
	return retval, nil
}
