// Package httpclient はガーディアンAPIバックエンドと通信する認証付きHTTPクライアントを提供する。
//
// 送信前に資格情報ストアからBearerトークンを読み出して付与し、401を受けた場合は
// トークンのリフレッシュを1回だけ試みてリクエストを再送する。リフレッシュは
// クライアントごとに同時に1つしか実行されず、実行中に401を受けたリクエストは
// キューに積まれ、リフレッシュの結果を共有する。リフレッシュに失敗した場合は
// 資格情報を削除し、セッション終了を通知する。
package httpclient
