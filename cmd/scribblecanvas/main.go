/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"scribblecanvas/internal/config"
	"scribblecanvas/internal/crash"
	applog "scribblecanvas/internal/log"
	"scribblecanvas/internal/ui"
	"scribblecanvas/internal/version"
)

func usage() {
	fmt.Println("Scribble Canvas — interactive image scribble widget")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  scribblecanvas version|-v|--version        Show version")
	fmt.Println("  scribblecanvas ui [<image>]                Launch desktop UI (build with -tags fyne for full UI)")
	fmt.Println("  scribblecanvas check-settings <file>       Validate a widget settings JSON file")
	fmt.Println("  scribblecanvas token set <value>           Store the backend token in the OS keychain")
	fmt.Println("  scribblecanvas token clear                 Remove the backend token from the OS keychain")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Scribble Canvas — interactive image scribble widget")
			fmt.Println(version.String())
			return
		case "check-settings":
			if len(args) < 3 {
				fmt.Println("check-settings requires <file>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			data, err := os.ReadFile(abs)
			if err != nil {
				l.Error("read settings failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			s, err := config.ParseSettingsJSON(data)
			if err != nil {
				fmt.Println("Invalid:", err)
				os.Exit(1)
			}
			fmt.Printf("OK: height=%d color=%s width=%g alpha=%g softness=%g\n",
				s.Height, s.Color.Value, s.Width.Value, s.Alpha.Value, s.Softness.Value)
			return
		case "token":
			if len(args) < 3 {
				fmt.Println("token requires set <value> or clear")
				usage()
				os.Exit(2)
			}
			switch args[2] {
			case "set":
				if len(args) < 4 {
					fmt.Println("token set requires <value>")
					os.Exit(2)
				}
				if err := config.SetBackendToken(args[3]); err != nil {
					l.Error("token store failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Println("Token stored in the OS keychain.")
			case "clear":
				if err := config.SetBackendToken(""); err != nil {
					l.Error("token clear failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Println("Token removed from the OS keychain.")
			default:
				usage()
				os.Exit(2)
			}
			return
		case "ui":
			var img string
			if len(args) >= 3 {
				img = args[2]
			}
			if err := ui.Run(img); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}
