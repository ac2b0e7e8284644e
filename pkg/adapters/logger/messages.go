package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Recorder (info)
		"Building %s video from %d images at %d fps (%s)": "%[2]d 枚の画像から %[1]s 動画を %[3]d fps で作成中 (%[4]s)",
		"Exporting %d images as looping image":            "%d 枚の画像をループ画像として書き出し中",
		"Output saved to %s":                              "出力を %s に保存しました",
		"Output saved to %s (%d frames, %.2fs) in %s":     "出力を %s に保存しました (%d フレーム, %.2f秒, 所要 %s)",
		"Interrupted, shutting down...":                   "中断されました。シャットダウン中...",

		// Feed stage
		"Feeding %d frames at %d fps (%s)": "%d フレームを %d fps で投入中 (%s)",
		"Session busy, waiting":            "セッションがビジーのため待機中",
		"Appended frame %d/%d at %s":       "フレーム %d/%d を %s に追加しました",
		"Finalized %s (%d frames, %s)":     "%s を確定しました (%d フレーム, %s)",
		"Feeding failed: %v":               "フレーム投入に失敗しました: %v",
		"Feeding cancelled":                "フレーム投入がキャンセルされました",

		// Adapters
		"Decoded %s (%s, %dx%d)":                            "%s をデコードしました (%s, %dx%d)",
		"Dithered frame %d/%d":                              "フレーム %d/%d を減色しました",
		"Opened %s (%dx%d, %d fps)":                         "%s を開きました (%dx%d, %d fps)",
		"Opened %s (%dx%d, %d fps, %d frames per fragment)": "%s を開きました (%dx%d, %d fps, フラグメントあたり %d フレーム)",
		"Started %s for %s (%s, %dx%d, %d fps)":             "%[2]s 向けに %[1]s を起動しました (%[3]s, %[4]dx%[5]d, %[6]d fps)",
		"Using %s backend (requested %s)":                   "%s バックエンドを使用します (要求: %s)",
		"Removed previous output %s":                        "以前の出力 %s を削除しました",
		"Wrote %d frames to %s (%d bytes)":                  "%d フレームを %s に書き込みました (%d バイト)",
		"Wrote %d test frames (%dx%d) to %s":                "%d 枚のテストフレーム (%dx%d) を %s に書き込みました",

		// Warnings
		"Build rejected, job %s is still running":   "ジョブ %s が実行中のため要求を拒否しました",
		"ffmpeg not available, falling back to %s":  "ffmpeg が見つからないため %s にフォールバックします",
		"Alpha channel is not preserved by libx265": "libx265 ではアルファチャンネルは保持されません",
		"Failed to save debug frame %d: %v":         "デバッグフレーム %d の保存に失敗しました: %v",
		"Failed to save job summary: %s":            "ジョブ概要の保存に失敗しました: %s",

		// Errors
		"Failed to load image: %s":           "画像の読み込みに失敗しました: %s",
		"Failed to open %s encoder: %s":      "%s エンコーダーを開けませんでした: %s",
		"Failed to build video: %s":          "動画の作成に失敗しました: %s",
		"Failed to export looping image: %s": "ループ画像の書き出しに失敗しました: %s",
	})
}
