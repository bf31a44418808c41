// Command gospel evaluates expressions from the command line.
//
//	gospel eval [-data file.json] [-var name=json]... <expression>
//	gospel repl [-data file.json]
//	gospel version
//
// Settings are read from GOSPEL_TIMEOUT, GOSPEL_DEBUG and GOSPEL_CACHE_SIZE
// (a .env file in the working directory is loaded first, then the file
// named by GOSPEL_ENV_FILE); the -timeout,
// -debug and -cache-size flags override them.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/sandrolain/gospel"
	"github.com/sandrolain/gospel/internal/cli"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: gospel <eval|repl|version> [flags]")
}

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	env := cli.OSEnv()
	if path := env.Getenv(cli.EnvFile); path != "" {
		getenv, err := cli.LoadEnvFile(path, env.Getenv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", cli.EnvFile, err)
			os.Exit(2)
		}
		env.Getenv = getenv
	}
	cfg, err := cli.LoadConfig(env.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ configuration: %v\n", err)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "eval":
		os.Exit(cli.HandleEval(os.Args[2:], cfg, env))
	case "repl":
		os.Exit(cli.HandleRepl(os.Args[2:], cfg, env))
	case "version":
		fmt.Println(gospel.Version())
	case "-h", "-help", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
}
