package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snaphtml <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  capture    Render HTML files, URLs, or markup to images")
	fmt.Fprintln(w, "  doctor     Check the browser and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'snaphtml help <command>' for details on a specific command.")
}

// printCaptureUsage prints usage for the capture command.
func printCaptureUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snaphtml capture <source>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render each source to an image. All sources share one browser and viewport.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  source    HTML file path, http(s) URL, raw HTML string, or - for stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>        Output file, or directory for several sources (001.png...)")
	fmt.Fprintln(w, "      --format <s>           Image format: png, jpeg, webp")
	fmt.Fprintln(w, "      --quality <n>          jpeg/webp quality (0-100)")
	fmt.Fprintln(w, "      --full-page            Capture the full scrollable page")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Size:")
	fmt.Fprintln(w, "  -W, --width <n>            Screen width in pixels (default 1920)")
	fmt.Fprintln(w, "  -H, --height <n>           Screen height in pixels (default 1080)")
	fmt.Fprintln(w, "      --cm-width <f>         Content width in centimeters")
	fmt.Fprintln(w, "      --cm-height <f>        Content height in centimeters")
	fmt.Fprintln(w, "      --dpi <n>              Dots per inch for centimeters (default 300)")
	fmt.Fprintln(w, "      --fit <s>              contain, cover, fill, none (pixels + centimeters)")
	fmt.Fprintln(w, "      --scale <f>            Device scale factor (default 1.5)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -t, --timeout <d>          Max wait for console RENDER_COMPLETE (default 10s)")
	fmt.Fprintln(w, "      --query <k=v>          Query parameter for every page (repeatable)")
	fmt.Fprintln(w, "  -j, --max-concurrency <n>  Max pages rendered at once (0 = all)")
	fmt.Fprintln(w, "      --keep-temp            Keep temp files written for inline HTML")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --engine <s>           rod (default), chromedp, playwright")
	fmt.Fprintln(w, "      --browser-bin <path>   Browser executable")
	fmt.Fprintln(w, "      --no-sandbox           Disable the Chrome sandbox (Docker/CI)")
	fmt.Fprintln(w, "      --headful              Show the browser window")
	fmt.Fprintln(w, "      --browser-flag <s>     Extra browser switch, e.g. lang=fr (repeatable)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -c, --config <name>        Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet                Only show errors")
	fmt.Fprintln(w, "  -v, --verbose              Show browser and page progress")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  SNAPHTML_CONFIG, SNAPHTML_ENGINE, SNAPHTML_TIMEOUT, SNAPHTML_BROWSER_BIN,")
	fmt.Fprintln(w, "  SNAPHTML_NO_SANDBOX, SNAPHTML_SCALE, SNAPHTML_DPI, SNAPHTML_OUTPUT_DIR,")
	fmt.Fprintln(w, "  SNAPHTML_PLAYWRIGHT_INSTALL")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snaphtml doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check browser discovery, sandbox settings, and the temp directory.")
	fmt.Fprintln(w, "Exits 1 when a problem would prevent rendering.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "capture":
		printCaptureUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: snaphtml version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: snaphtml help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "error: unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitFailure
	}
	return ExitSuccess
}
