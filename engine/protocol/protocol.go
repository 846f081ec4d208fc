// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package protocol provides a JSON protocol (server-side) that lets text
// editors and scripts drive the analysis engine: a client opens a session,
// submits a program, and then queries the values of its expressions and
// variables.
//
// Each request is a JSON object with a "command" key.  Each reply is a JSON
// object whose "reply" key is either "OK" or "Error"; errors carry a
// "message".
package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/godoctor/cfa/config"
	"github.com/godoctor/cfa/engine"
)

type Reply struct {
	Params map[string]interface{}
}

func (r Reply) String() string {
	replyJson, _ := json.Marshal(r.Params)
	return string(replyJson)
}

func errorReply(err error) Reply {
	return Reply{map[string]interface{}{"reply": "Error", "message": err.Error()}}
}

// Session states.  Every command requires at least an open session; queries
// require an analyzed program.
const (
	Closed = iota
	Opened
	Analyzed
)

type State struct {
	State    int
	Dir      string
	Config   *config.Config
	Logger   *config.LogGroup
	Analysis *engine.Analysis
}

// Run executes protocol commands, writing one reply per line to out.  If
// args is empty, commands are read from in, one JSON object per line, until
// end of input or a "close" command.  Otherwise args[0] is a JSON array of
// commands that are run in order on a session that is already open; only
// the last reply (or the first error) is written.
func Run(in io.Reader, out io.Writer, cfg *config.Config, logger *config.LogGroup, args []string) {
	// single command console
	if len(args) == 0 {
		runSingle(in, out, cfg, logger)
		return
	}
	cmdList := setup()
	// list of commands
	var argJson []map[string]interface{}
	err := json.Unmarshal([]byte(args[0]), &argJson)
	if err != nil {
		printReply(out, errorReply(err))
		return
	}
	state := &State{State: Opened, Config: cfg, Logger: logger}
	for i, cmdObj := range argJson {
		cmd, ok := lookup(cmdList, cmdObj)
		if !ok {
			printReply(out, errorReply(errInvalidCommand))
			return
		}
		resultReply, err := cmd.Run(state, cmdObj)
		if err != nil {
			printReply(out, resultReply)
			return
		}
		// last command?
		if i == len(argJson)-1 {
			printReply(out, resultReply)
		}
	}
}

func runSingle(in io.Reader, out io.Writer, cfg *config.Config, logger *config.LogGroup) {
	cmdList := setup()
	state := &State{State: Closed, Config: cfg, Logger: logger}
	ioreader := bufio.NewReader(in)
	for {
		input, err := ioreader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			printReply(out, errorReply(err))
			return
		}
		if len(input) > 0 {
			var inputJson map[string]interface{}
			if jerr := json.Unmarshal(input, &inputJson); jerr != nil {
				printReply(out, errorReply(jerr))
			} else if inputJson["command"] == "close" {
				printReply(out, Reply{map[string]interface{}{"reply": "OK"}})
				return
			} else if cmd, ok := lookup(cmdList, inputJson); !ok {
				printReply(out, errorReply(errInvalidCommand))
			} else {
				result, _ := cmd.Run(state, inputJson)
				printReply(out, result)
			}
		}
		if err == io.EOF {
			return
		}
	}
}

var errInvalidCommand = fmt.Errorf("Invalid JSON command")

// little helpers
func setup() map[string]Command {
	cmds := make(map[string]Command)
	cmds["about"] = &About{}
	cmds["open"] = &Open{}
	cmds["setdir"] = &Setdir{}
	cmds["formats"] = &Formats{}
	cmds["analyze"] = &Analyze{}
	cmds["query"] = &Query{}
	cmds["constraints"] = &Constraints{}
	cmds["results"] = &Results{}
	return cmds
}

func lookup(cmdList map[string]Command, input map[string]interface{}) (Command, bool) {
	name, ok := input["command"].(string)
	if !ok {
		return nil, false
	}
	cmd, found := cmdList[name]
	return cmd, found
}

func printReply(out io.Writer, reply Reply) {
	fmt.Fprintf(out, "%s\n", reply)
}
