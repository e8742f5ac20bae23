package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe は認証APIサーバーを起動する。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションのクリーンアップワーカーを起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はusers/sessionsテーブルのマイグレーションを実行する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中のサーバーの /health を確認する。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// knownCommands はサブコマンド名と起動モードの対応。
var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
