package app

import (
	"fmt"
	"strings"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe は食事記録APIサーバーを起動する。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションの定期削除ワーカーを起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はuser_tb・food_tb・sessionsのマイグレーションを適用する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中のAPIサーバーの/healthを確認する。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp はサブコマンドの一覧を表示する。
	CommandHelp Command = "help"
)

// commands は表示順のサブコマンド一覧と説明。
var commands = []struct {
	cmd  Command
	desc string
}{
	{CommandServe, "食事記録APIサーバーを起動する（デフォルト）"},
	{CommandWorker, "期限切れセッションを SESSION_CLEANUP_INTERVAL ごとに削除する"},
	{CommandMigrate, "データベースマイグレーションを適用する"},
	{CommandHealthcheck, "ローカルのAPIサーバーの /health を確認する"},
	{CommandHelp, "このヘルプを表示する"},
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	case "help", "-h", "--help":
		return CommandHelp
	default:
		return CommandServe
	}
}

// Usage はfoodtrackerバイナリの使い方を返す。
func Usage() string {
	var b strings.Builder
	b.WriteString("Usage: foodtracker <command>\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-12s %s\n", c.cmd, c.desc)
	}
	b.WriteString("\n設定は環境変数から読み込む（DATABASE_URL, BASE_URL, S3_PUBLIC_URL は必須）。\n")
	return b.String()
}
