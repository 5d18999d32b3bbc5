//go:build mage

// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName  = "dripapi"
	modulePath  = "github.com/penny-vault/drip-api"
	coverOutput = "coverage.out"
)

// Default builds the dripapi binary
var Default = Build

// goexe may be overridden with GOEXE=xxx mage ...
func goexe() string {
	if exe := os.Getenv("GOEXE"); exe != "" {
		return exe
	}
	return "go"
}

// Build compiles dripapi with the commit hash and build date stamped into common
func Build() error {
	fmt.Println("Building", binaryName)
	return sh.RunWith(versionEnv(), goexe(), "build", "-o", binaryName, "-ldflags", ldflags(), ".")
}

// Install puts dripapi in $GOBIN
func Install() error {
	return sh.RunWith(versionEnv(), goexe(), "install", "-ldflags", ldflags(), ".")
}

// Clean removes build and coverage output
func Clean() error {
	for _, name := range []string{binaryName, coverOutput} {
		if err := sh.Rm(name); err != nil {
			return err
		}
	}
	return nil
}

// Check formats, vets and race-tests the module
func Check() {
	mg.SerialDeps(Fmt, Vet, TestRace)
}

// Test runs the ginkgo suites
func Test() error {
	return sh.RunV(goexe(), "test", "./...")
}

// TestRace runs the ginkgo suites with the race detector
func TestRace() error {
	return sh.RunV(goexe(), "test", "-race", "./...")
}

// Cover writes a coverage profile for every package and opens it in the browser
func Cover() error {
	if err := sh.RunV(goexe(), "test", "-covermode=count", "-coverpkg=./...", "-coverprofile="+coverOutput, "./..."); err != nil {
		return err
	}
	return sh.Run(goexe(), "tool", "cover", "-html="+coverOutput)
}

// Vet runs go vet
func Vet() error {
	if err := sh.Run(goexe(), "vet", "./..."); err != nil {
		return fmt.Errorf("go vet failed: %w", err)
	}
	return nil
}

// Fmt fails when any package directory holds files gofmt would rewrite
func Fmt() error {
	dirs, err := sh.Output(goexe(), "list", "-f", "{{.Dir}}", "./...")
	if err != nil {
		return err
	}

	args := append([]string{"-l"}, strings.Fields(dirs)...)
	unformatted, err := sh.Output("gofmt", args...)
	if err != nil {
		return err
	}
	if unformatted != "" {
		fmt.Println("The following files are not gofmt'ed:")
		fmt.Println(unformatted)
		return errors.New("improperly formatted go files")
	}
	return nil
}

func ldflags() string {
	return fmt.Sprintf("-X %[1]s/common.commitHash=$COMMIT_HASH -X %[1]s/common.buildDate=$BUILD_DATE", modulePath)
}

func versionEnv() map[string]string {
	hash, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		hash = ""
	}
	return map[string]string{
		"COMMIT_HASH": hash,
		"BUILD_DATE":  time.Now().Format("2006-01-02T15:04:05Z0700"),
	}
}
