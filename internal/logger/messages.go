package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Batch
		"Rendering %d target(s) at %s with %s": "%d 件のターゲットを %s (%s) でレンダリング中",
		"Target %d failed: %v":                 "ターゲット %d が失敗しました: %v",

		// Session
		"Launching %s browser (headless=%t, sandbox=%t)": "%s ブラウザを起動中 (headless=%t, sandbox=%t)",
		"Opened browser context at %s":                   "ブラウザコンテキストを %s で開きました",
		"Closing browser after context failure: %v":      "コンテキスト失敗後にブラウザを閉じています: %v",
		"Browser closed":                                 "ブラウザを閉じました",

		// Page
		"Navigating to %s":                                      "%s へ移動中",
		"Render complete signal after %s":                       "%s 後にレンダリング完了シグナルを受信しました",
		"No render complete signal within %s, capturing anyway": "%s 以内に完了シグナルがありません。そのままキャプチャします",
		"Wrote %d bytes to %s":                                  "%d バイトを %s に書き込みました",
		"Closing page for %s: %v":                               "%s のページを閉じる際のエラー: %v",
	})
}
