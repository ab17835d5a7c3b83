package redisstore

import "github.com/redis/go-redis/v9"

// moveScript puts a connection into a room and out of its previous one.
//
// KEYS: rooms set, target members set, connection key.
// ARGV: room, connection id, key prefix, "1" to create the room if missing.
// Returns {found, previous}.
//
// The previous room's members key is only known inside the script, so it is
// built from the prefix instead of being passed in KEYS. On Redis Cluster this
// requires a hash-tagged prefix that pins every key to the same slot.
var moveScript = redis.NewScript(`
local rooms, members, connKey = KEYS[1], KEYS[2], KEYS[3]
local room, conn, prefix, create = ARGV[1], ARGV[2], ARGV[3], ARGV[4] == "1"

if not create then
	if redis.call("SISMEMBER", rooms, room) == 0 or redis.call("SCARD", members) == 0 then
		return {0, ""}
	end
end

local prev = redis.call("GET", connKey)
if not prev then
	prev = ""
end
if prev == room then
	return {1, prev}
end

if prev ~= "" then
	local prevMembers = prefix .. "room:" .. prev .. ":members"
	redis.call("SREM", prevMembers, conn)
	if redis.call("SCARD", prevMembers) == 0 then
		redis.call("SREM", rooms, prev)
	end
end

redis.call("SADD", rooms, room)
redis.call("SADD", members, conn)
redis.call("SET", connKey, room)
return {1, prev}
`)

// leaveScript removes a connection from its room and reaps the room when empty.
//
// KEYS: connection key, rooms set.
// ARGV: connection id, key prefix.
// Returns the room left, or "". The members key is derived like in moveScript.
var leaveScript = redis.NewScript(`
local room = redis.call("GET", KEYS[1])
if not room then
	return ""
end
redis.call("DEL", KEYS[1])

local members = ARGV[2] .. "room:" .. room .. ":members"
redis.call("SREM", members, ARGV[1])
if redis.call("SCARD", members) == 0 then
	redis.call("SREM", KEYS[2], room)
end
return room
`)
