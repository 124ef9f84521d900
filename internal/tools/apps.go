package tools

import (
	"context"
	"fmt"
	"net/url"

	"google.golang.org/genai"

	"github.com/satriahrh/iris/domain/repositories"
)

const googleSearchURL = "https://www.google.com/search?q="

type appTools struct {
	system repositories.SystemControl
}

func (a *appTools) openApp() Tool {
	return Tool{
		Declaration: declare(OpenApp, "Launch a system application or software installed on the computer (e.g., VS Code, Chrome, Calculator, Settings).", object(map[string]*genai.Schema{
			"app_name": str(`The name of the application (e.g., "vscode", "browser").`),
		}, "app_name")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			name, err := args.RequireString("app_name")
			if err != nil {
				return "", err
			}
			if err := a.system.OpenApp(ctx, name); err != nil {
				return "", err
			}
			return fmt.Sprintf("Opened %s.", name), nil
		},
	}
}

func (a *appTools) closeApp() Tool {
	return Tool{
		Declaration: declare(CloseApp, `Force close or terminate a running application. Use this when the user says "Close [App]", "Kill [App]", or "Stop [App]".`, object(map[string]*genai.Schema{
			"app_name": str(`The name of the application to close (e.g., "Chrome", "Notepad").`),
		}, "app_name")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			name, err := args.RequireString("app_name")
			if err != nil {
				return "", err
			}
			killed, err := a.system.CloseApp(ctx, name)
			if err != nil {
				return "", err
			}
			if killed == 0 {
				return fmt.Sprintf("%s is not running.", name), nil
			}
			return fmt.Sprintf("Closed %s (%d process(es)).", name, killed), nil
		},
	}
}

func (a *appTools) googleSearch() Tool {
	return Tool{
		Declaration: declare(GoogleSearch, `Open a Google Search in the user's browser. Use this when the user asks to "search for", "Google", or find information online.`, object(map[string]*genai.Schema{
			"query": str("The search query."),
		}, "query")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			query, err := args.RequireString("query")
			if err != nil {
				return "", err
			}
			if err := a.system.OpenPath(ctx, googleSearchURL+url.QueryEscape(query)); err != nil {
				return "", err
			}
			return fmt.Sprintf("Searching Google for %q.", query), nil
		},
	}
}

func (a *appTools) setVolume() Tool {
	return Tool{
		Declaration: declare(SetVolume, "Set system volume (0-100).", object(map[string]*genai.Schema{
			"level": num("Volume level from 0 to 100."),
		}, "level")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			if _, ok := args.Number("level"); !ok {
				return "", fmt.Errorf("missing required argument %q", "level")
			}
			level := args.Int("level", 0)
			if level < 0 {
				level = 0
			} else if level > 100 {
				level = 100
			}
			if err := a.system.SetVolume(ctx, level); err != nil {
				return "", err
			}
			return fmt.Sprintf("Volume set to %d%%", level), nil
		},
	}
}

func (a *appTools) takeScreenshot() Tool {
	return Tool{
		Declaration: declare(TakeScreenshot, "Take a screenshot.", nil),
		Handler: func(ctx context.Context, args Args) (string, error) {
			path, err := a.system.Screenshot(ctx)
			if err != nil {
				return "", err
			}
			return "Screenshot saved to " + path, nil
		},
	}
}
