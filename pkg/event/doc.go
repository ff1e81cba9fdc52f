// Package event はセッションの開始・終了などのアプリケーション内イベントを定義し、
// 購読者へ配信するイベントバスを提供する。
//
// HTTPクライアントはトークンのリフレッシュに失敗するとBusにSessionEndedを配信し、
// セッション管理やCLIはそれを購読して再ログインを促す。
package event
